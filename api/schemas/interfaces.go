package schemas

import (
	"context"
	"time"
)

// PageSession is the page-automation collaborator: one isolated browser tab
// owned by exactly one target's pipeline. Every method is a suspension point
// and respects the passed context.
type PageSession interface {
	// ID returns the unique session identifier.
	ID() string
	// Navigate loads a URL, bounded by timeout. The registry portal is known
	// to be slow, so callers pass bounds up to several minutes.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// ExecuteAction replays a resolved low-level action against the page.
	ExecuteAction(ctx context.Context, action CachedAction) error
	// ResolveInstruction asks the page-understanding collaborator to turn a
	// natural-language instruction into candidate actions for the current
	// page. An empty candidate list is returned as an error by callers.
	ResolveInstruction(ctx context.Context, instruction string) ([]CachedAction, error)
	// WaitForNetworkIdle blocks until no network requests have been in
	// flight for the configured quiet period.
	WaitForNetworkIdle(ctx context.Context) error
	// WaitForText blocks until an element containing the text is present,
	// failing when the timeout elapses.
	WaitForText(ctx context.Context, text string, timeout time.Duration) error
	// PressKey dispatches a keyboard key (e.g. "Enter") to the focused element.
	PressKey(ctx context.Context, key string) error
	// ExtractStructured performs one schema-constrained extraction against
	// the current page and unmarshals the result into out.
	ExtractStructured(ctx context.Context, instruction string, schema ExtractionSchema, out any) error
	// HarvestDownloadLinks collects every downloadable-link element on the
	// current page, independent of any metadata extraction.
	HarvestDownloadLinks(ctx context.Context) ([]DocumentLinkRecord, error)
	// Highlight draws an advisory overlay over the action's target element.
	// Purely observational; failures never affect correctness.
	Highlight(ctx context.Context, action CachedAction) error
	// ClearHighlight removes any overlay drawn by Highlight.
	ClearHighlight(ctx context.Context) error
	// Close disposes the session and its page state.
	Close(ctx context.Context) error
}

// ActionStore is the process-wide instruction cache: a durable mapping from
// exact instruction text to the action it resolved to. Concurrent writers on
// distinct keys are safe; racing writers on the same key may redundantly
// overwrite with an equivalent action, which is accepted.
type ActionStore interface {
	// Read returns the cached action for an instruction, reporting presence.
	Read(ctx context.Context, instruction string) (CachedAction, bool, error)
	// Write persists an action under the exact instruction text.
	Write(ctx context.Context, instruction string, action CachedAction) error
}

// SessionProvider provisions fresh, initialized page sessions for the
// orchestrator. The first target of a run reuses a caller-owned session
// instead, so providers only see targets two onward.
type SessionProvider interface {
	NewPageSession(ctx context.Context) (PageSession, error)
}

// ResultSink persists one successful target payload. Implementations own
// directory layout and serialization; failures are caught per target at the
// persistence boundary and never abort other targets.
type ResultSink interface {
	WriteTarget(result *TargetResult) error
}
