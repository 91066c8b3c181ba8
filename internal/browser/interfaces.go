package browser

import (
	"context"
	"encoding/json"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

// InstructionResolver is the page-understanding collaborator a session leans
// on for instruction resolution and structured extraction.
type InstructionResolver interface {
	ResolveActions(ctx context.Context, instruction, pageHTML string) ([]schemas.CachedAction, error)
	Extract(ctx context.Context, instruction string, schema schemas.ExtractionSchema, pageHTML string) (json.RawMessage, error)
}
