// Package orchestrator fans a target list out to independent page sessions,
// runs the extraction pipeline per target inside an isolated failure
// boundary, and fans the per-target outcomes back in for persistence.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

const sessionDisposeTimeout = 15 * time.Second

// Pipeline runs the full extraction for one target on one page session.
type Pipeline interface {
	Scrape(ctx context.Context, page schemas.PageSession, target string) (*schemas.TargetResult, error)
}

// Orchestrator manages a multi-target run.
type Orchestrator struct {
	provider schemas.SessionProvider
	pipeline Pipeline
	sink     schemas.ResultSink
	logger   *zap.Logger
}

// New creates an Orchestrator with its dependencies provided as interfaces.
func New(
	provider schemas.SessionProvider,
	pipeline Pipeline,
	sink schemas.ResultSink,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if provider == nil || pipeline == nil || sink == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		provider: provider,
		pipeline: pipeline,
		sink:     sink,
		logger:   logger.Named("orchestrator"),
	}, nil
}

// Run executes every target concurrently and returns one outcome per target,
// in target order. The first target reuses firstSession, which the caller
// owns and which is never disposed here; every other target gets a fresh
// session, disposed when its pipeline settles. One target's failure never
// aborts another's, and successful outcomes are persisted even when siblings
// fail.
func (o *Orchestrator) Run(ctx context.Context, firstSession schemas.PageSession, targets []string) ([]schemas.SessionOutcome, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("target list is empty")
	}
	if firstSession == nil {
		return nil, fmt.Errorf("a caller-owned session for the first target is required")
	}

	o.logger.Info("Starting run.", zap.Int("targets", len(targets)))

	outcomes := make([]schemas.SessionOutcome, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			outcomes[i] = o.runTarget(ctx, firstSession, target, i == 0)
		}(i, target)
	}
	wg.Wait()

	o.persist(outcomes)

	succeeded := 0
	for _, outcome := range outcomes {
		if !outcome.Failed() {
			succeeded++
		}
	}
	o.logger.Info("Run complete.",
		zap.Int("targets", len(targets)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(targets)-succeeded),
	)
	return outcomes, nil
}

// runTarget is the per-target failure boundary: every error from session
// provisioning or the pipeline is converted into a failure outcome here,
// exactly once, and never escapes.
func (o *Orchestrator) runTarget(ctx context.Context, firstSession schemas.PageSession, target string, isFirst bool) schemas.SessionOutcome {
	log := o.logger.With(zap.String("target", target))

	var page schemas.PageSession
	if isFirst {
		// The caller's already-initialized session saves one startup cost.
		page = firstSession
	} else {
		fresh, err := o.provider.NewPageSession(ctx)
		if err != nil {
			log.Error("Failed to provision session for target.", zap.Error(err))
			return schemas.SessionOutcome{Target: target, Err: fmt.Errorf("session provisioning failed: %w", err)}
		}
		page = fresh
		defer o.dispose(fresh, log)
	}

	result, err := o.pipeline.Scrape(ctx, page, target)
	if err != nil {
		log.Error("Target pipeline failed.", zap.Error(err))
		return schemas.SessionOutcome{Target: target, Err: err}
	}

	log.Info("Target pipeline succeeded.")
	return schemas.SessionOutcome{Target: target, Result: result}
}

// dispose tears down a freshly provisioned session. Never called for the
// caller-owned first session.
func (o *Orchestrator) dispose(page schemas.PageSession, log *zap.Logger) {
	disposeCtx, cancel := context.WithTimeout(context.Background(), sessionDisposeTimeout)
	defer cancel()

	if err := page.Close(disposeCtx); err != nil {
		log.Warn("Failed to dispose session.", zap.Error(err))
	}
}

// persist writes every successful outcome. Persistence failures are caught
// and logged per target and never abort the others.
func (o *Orchestrator) persist(outcomes []schemas.SessionOutcome) {
	for _, outcome := range outcomes {
		if outcome.Failed() {
			continue
		}
		if err := o.sink.WriteTarget(outcome.Result); err != nil {
			o.logger.Error("Failed to persist target result.",
				zap.String("target", outcome.Target),
				zap.Error(err),
			)
		}
	}
}
