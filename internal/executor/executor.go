// Package executor implements the cached action path: every page interaction
// goes through the instruction cache first, and only cache misses pay for a
// resolver round trip.
package executor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

// ErrNoCandidate is returned when the resolver produces no usable action for
// an instruction. This is a hard failure: the instruction cannot be fulfilled
// on the current page.
var ErrNoCandidate = errors.New("no candidate action for instruction")

// CachedExecutor executes natural-language instructions against a page,
// consulting the shared instruction cache before resolving.
type CachedExecutor struct {
	store  schemas.ActionStore
	logger *zap.Logger
}

// New creates a CachedExecutor over the given action store.
func New(store schemas.ActionStore, logger *zap.Logger) *CachedExecutor {
	return &CachedExecutor{
		store:  store,
		logger: logger.Named("executor"),
	}
}

// Act fulfills one instruction on the page. On a cache hit the stored action
// is replayed directly, with no resolver involvement. On a miss the
// instruction is resolved, the first candidate is persisted under the exact
// instruction text, and then executed. The pre-execution highlight is
// advisory only; its failures are logged and ignored.
func (e *CachedExecutor) Act(ctx context.Context, page schemas.PageSession, instruction string) error {
	action, found, err := e.store.Read(ctx, instruction)
	if err != nil {
		return fmt.Errorf("cache read failed for instruction %q: %w", instruction, err)
	}

	if found {
		e.logger.Debug("Cache hit.", zap.String("instruction", instruction))
		if err := page.ExecuteAction(ctx, action); err != nil {
			return fmt.Errorf("cached action failed for instruction %q: %w", instruction, err)
		}
		return nil
	}

	e.logger.Info("Cache miss, resolving instruction.", zap.String("instruction", instruction))

	candidates, err := page.ResolveInstruction(ctx, instruction)
	if err != nil {
		return fmt.Errorf("instruction resolution failed for %q: %w", instruction, err)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("instruction %q: %w", instruction, ErrNoCandidate)
	}

	// First candidate wins; alternates are discarded.
	action = candidates[0]

	// Persist before executing. Execution failures should not force the next
	// run to resolve again: the mapping itself is what the cache records.
	if err := e.store.Write(ctx, instruction, action); err != nil {
		return fmt.Errorf("cache write failed for instruction %q: %w", instruction, err)
	}

	e.highlight(ctx, page, action)

	if err := page.ExecuteAction(ctx, action); err != nil {
		return fmt.Errorf("resolved action failed for instruction %q: %w", instruction, err)
	}
	return nil
}

// highlight draws the advisory overlay over a freshly resolved element and
// clears it again. Never affects the action outcome.
func (e *CachedExecutor) highlight(ctx context.Context, page schemas.PageSession, action schemas.CachedAction) {
	if err := page.Highlight(ctx, action); err != nil {
		e.logger.Debug("Highlight failed (ignored).", zap.Error(err))
		return
	}
	if err := page.ClearHighlight(ctx); err != nil {
		e.logger.Debug("Clearing highlight failed (ignored).", zap.Error(err))
	}
}
