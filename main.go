package main

import (
	"github.com/maheshrjl/reraharvest/cmd"
)

func main() {
	cmd.Execute()
}
