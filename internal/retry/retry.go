// Package retry provides the bounded recovery policy used for the portal's
// non-deterministic tab loads: a named step gets a fixed number of attempts,
// with a hook that re-runs the predecessor action (typically the tab click)
// before each reattempt. It is an explicit wrapper rather than inline
// control flow so the policy is testable on its own.
package retry

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
)

// Recoverable describes one bounded-retry step.
type Recoverable struct {
	// Name identifies the step in errors.
	Name string
	// MaxAttempts bounds the total attempts, including the first. The tab
	// waits use 2: one defensive retry, then the failure propagates.
	MaxAttempts int
	// OnRetry runs before each reattempt, re-executing the predecessor
	// action whose effect may not have landed. An OnRetry error aborts the
	// step immediately.
	OnRetry func(ctx context.Context) error
}

// Do runs op under the policy. Once the attempt budget is exhausted the last
// attempt's error is returned wrapped with the step name; a failed recovery
// action aborts without further attempts.
func (r Recoverable) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("step %q: max attempts must be at least 1", r.Name)
	}

	attempt := 0
	var recoveryErr error
	wrapped := func() error {
		attempt++
		if attempt > 1 && r.OnRetry != nil {
			if err := r.OnRetry(ctx); err != nil {
				recoveryErr = fmt.Errorf("step %q: recovery action failed: %w", r.Name, err)
				return backoff.Permanent(recoveryErr)
			}
		}
		return op(ctx)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(r.MaxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(wrapped, policy)
	if err == nil {
		return nil
	}
	if recoveryErr != nil {
		return recoveryErr
	}
	return fmt.Errorf("step %q failed after %d attempts: %w", r.Name, attempt, err)
}
