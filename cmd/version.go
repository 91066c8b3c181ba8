package cmd

// Version is the application version, intended to be set at build time:
//
//	go build -ldflags "-X github.com/maheshrjl/reraharvest/cmd.Version=1.0.0"
var Version = "0.1.0"
