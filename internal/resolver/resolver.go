package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

const actionSystemPrompt = `You are an expert web automation engineer. You are given the HTML of a
web page and a natural-language instruction describing a single user
interaction on that page.

Respond with a JSON array of candidate actions, best candidate first. Each
element is an object with these keys:
  "kind":          one of "click", "fill", "press", "select"
  "selector_kind": "css" or "xpath"
  "selector":      the selector locating the target element
  "value":         the text to type or option to select (omit for clicks)
  "description":   a short human-readable summary of the action

Prefer stable selectors (ids, names, aria attributes) over positional ones.
Return an empty array only if no element on the page can satisfy the
instruction. Respond with the JSON array only, no prose.`

const extractSystemPrompt = `You are a meticulous data-extraction engine. You are given the HTML of a
web page, an instruction describing what to extract, and the list of fields
the caller expects.

Follow the instruction exactly, including the output shape it asks for
(single object or array of objects). Every expected field must be present
in every object you emit. When a value cannot be found on the page, use the
exact string "not available" for that field. Respond with JSON only.`

// Resolver turns instructions into candidate actions and performs
// schema-constrained structured extraction against page snapshots.
type Resolver struct {
	client        Client
	logger        *zap.Logger
	snapshotLimit int
}

// New builds a Resolver over the given generation client.
func New(client Client, snapshotLimit int, logger *zap.Logger) *Resolver {
	return &Resolver{
		client:        client,
		snapshotLimit: snapshotLimit,
		logger:        logger.Named("resolver"),
	}
}

// ResolveActions asks the model for candidate low-level actions fulfilling
// the instruction on the given page. The returned slice is ordered best
// candidate first and may be empty.
func (r *Resolver) ResolveActions(ctx context.Context, instruction, pageHTML string) ([]schemas.CachedAction, error) {
	snapshot := PruneSnapshot(pageHTML, r.snapshotLimit)

	var prompt strings.Builder
	prompt.WriteString("Instruction:\n")
	prompt.WriteString(instruction)
	prompt.WriteString("\n\nPage HTML:\n")
	prompt.WriteString(snapshot)

	raw, err := r.client.GenerateJSON(ctx, actionSystemPrompt, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("action resolution failed for instruction %q: %w", instruction, err)
	}

	actions, err := parseActions(raw)
	if err != nil {
		return nil, fmt.Errorf("action resolution returned malformed candidates for instruction %q: %w", instruction, err)
	}

	r.logger.Debug("Resolved instruction to action candidates.",
		zap.String("instruction", instruction),
		zap.Int("candidates", len(actions)),
	)
	return actions, nil
}

// Extract performs structured extraction from the page according to the
// instruction and expected schema, returning the raw JSON document. Missing
// fields in object results are filled with the "not available" sentinel.
func (r *Resolver) Extract(ctx context.Context, instruction string, schema schemas.ExtractionSchema, pageHTML string) (json.RawMessage, error) {
	snapshot := PruneSnapshot(pageHTML, r.snapshotLimit)

	var prompt strings.Builder
	prompt.WriteString("Instruction:\n")
	prompt.WriteString(instruction)
	prompt.WriteString("\n\nExpected fields:\n")
	for _, f := range schema.Fields {
		fmt.Fprintf(&prompt, "  - %s: %s\n", f.Name, f.Instruction)
	}
	prompt.WriteString("\nPage HTML:\n")
	prompt.WriteString(snapshot)

	raw, err := r.client.GenerateJSON(ctx, extractSystemPrompt, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("structured extraction failed: %w", err)
	}

	result, err := normalizeExtraction(stripCodeFences(raw), schema)
	if err != nil {
		return nil, fmt.Errorf("structured extraction returned malformed JSON: %w", err)
	}
	return result, nil
}

// parseActions decodes the model response into action candidates, tolerating
// markdown code fences and rejecting entries with unknown kinds or empty
// selectors.
func parseActions(raw string) ([]schemas.CachedAction, error) {
	cleaned := stripCodeFences(raw)

	var actions []schemas.CachedAction
	if err := json.Unmarshal([]byte(cleaned), &actions); err != nil {
		return nil, err
	}

	valid := actions[:0]
	for _, a := range actions {
		if a.Selector == "" {
			continue
		}
		switch a.Kind {
		case schemas.ActionClick, schemas.ActionFill, schemas.ActionPress, schemas.ActionSelect:
		default:
			continue
		}
		switch a.SelectorKind {
		case schemas.SelectorCSS, schemas.SelectorXPath:
		default:
			a.SelectorKind = schemas.SelectorCSS
		}
		valid = append(valid, a)
	}
	return valid, nil
}

// normalizeExtraction validates the extraction result and fills missing
// schema fields with the sentinel, for both object and array-of-object
// shapes.
func normalizeExtraction(raw string, schema schemas.ExtractionSchema) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty response")
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return nil, err
		}
		fillMissing(obj, schema)
		return json.Marshal(obj)
	case '[':
		var arr []map[string]any
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			return nil, err
		}
		for _, obj := range arr {
			fillMissing(obj, schema)
		}
		return json.Marshal(arr)
	default:
		return nil, fmt.Errorf("expected JSON object or array, got %q", trimmed[0])
	}
}

func fillMissing(obj map[string]any, schema schemas.ExtractionSchema) {
	for _, f := range schema.Fields {
		if v, ok := obj[f.Name]; !ok || v == nil || v == "" {
			obj[f.Name] = schemas.NotAvailable
		}
	}
}

// stripCodeFences removes a leading/trailing markdown code fence if the
// model wrapped its JSON despite the mime-type hint.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
