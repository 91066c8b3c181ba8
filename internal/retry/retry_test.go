package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	recoveries := 0

	step := Recoverable{
		Name:        "complaints tab ready",
		MaxAttempts: 2,
		OnRetry: func(ctx context.Context) error {
			recoveries++
			return nil
		},
	}
	err := step.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, recoveries, "recovery must not run when the first attempt succeeds")
}

func TestDoRecoversOnce(t *testing.T) {
	calls := 0
	recoveries := 0

	step := Recoverable{
		Name:        "land details tab ready",
		MaxAttempts: 2,
		OnRetry: func(ctx context.Context) error {
			recoveries++
			return nil
		},
	}
	err := step.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("marker not visible")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, recoveries, "predecessor must be reattempted exactly once")
}

func TestDoSecondFailurePropagates(t *testing.T) {
	waitErr := errors.New("marker not visible")
	calls := 0

	step := Recoverable{Name: "documents tab ready", MaxAttempts: 2}
	err := step.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return waitErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, waitErr)
	assert.Contains(t, err.Error(), "documents tab ready")
	assert.Equal(t, 2, calls, "no retry loop beyond the single defensive retry")
}

func TestDoRecoveryFailureAborts(t *testing.T) {
	recoveryErr := errors.New("tab click failed")
	calls := 0

	step := Recoverable{
		Name:        "documents tab ready",
		MaxAttempts: 2,
		OnRetry: func(ctx context.Context) error {
			return recoveryErr
		},
	}
	err := step.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("marker not visible")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, recoveryErr)
	assert.Equal(t, 1, calls, "op must not be reattempted after the recovery action fails")
}

func TestDoRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	step := Recoverable{Name: "canceled", MaxAttempts: 2}
	err := step.Do(ctx, func(ctx context.Context) error {
		cancel()
		return errors.New("transient")
	})

	require.Error(t, err)
}

func TestDoRejectsZeroAttempts(t *testing.T) {
	step := Recoverable{Name: "bad", MaxAttempts: 0}
	err := step.Do(context.Background(), func(ctx context.Context) error { return nil })
	require.Error(t, err)
}
