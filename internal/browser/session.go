package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
	"github.com/maheshrjl/reraharvest/internal/config"
)

// Session represents one browser tab and implements schemas.PageSession.
// A session is owned by exactly one target's pipeline at a time.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	resolver InstructionResolver
	monitor  *NetworkMonitor

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

var _ schemas.PageSession = (*Session)(nil)

// NewSession creates a Session wrapper around a tab context.
func NewSession(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.Config,
	res InstructionResolver,
	logger *zap.Logger,
) *Session {
	sessionID := uuid.New().String()

	return &Session{
		id:       sessionID,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With(zap.String("session_id", sessionID)),
		cfg:      cfg,
		resolver: res,
	}
}

// Initialize connects the tab and starts network monitoring.
func (s *Session) Initialize(ctx context.Context) error {
	// Ensure the target (tab) is created and CDP is connected.
	if err := chromedp.Run(s.ctx); err != nil {
		return fmt.Errorf("failed to connect tab target: %w", err)
	}

	s.monitor = NewNetworkMonitor(s.ctx, s.logger)
	if err := s.monitor.Start(); err != nil {
		return fmt.Errorf("failed to start network monitor: %w", err)
	}
	return nil
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Close terminates the tab.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing page session.")

	if s.monitor != nil {
		s.monitor.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// ResolveInstruction snapshots the current page and asks the resolver for
// candidate actions.
func (s *Session) ResolveInstruction(ctx context.Context, instruction string) ([]schemas.CachedAction, error) {
	pageHTML, err := s.snapshotHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot page for resolution: %w", err)
	}
	return s.resolver.ResolveActions(ctx, instruction, pageHTML)
}

// ExtractStructured snapshots the page, runs one schema-constrained
// extraction, and unmarshals the result into out.
func (s *Session) ExtractStructured(ctx context.Context, instruction string, schema schemas.ExtractionSchema, out any) error {
	pageHTML, err := s.snapshotHTML(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot page for extraction: %w", err)
	}

	raw, err := s.resolver.Extract(ctx, instruction, schema, pageHTML)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("extraction result does not match expected shape: %w", err)
	}
	return nil
}

// snapshotHTML captures the full serialized DOM of the current page.
func (s *Session) snapshotHTML(ctx context.Context) (string, error) {
	var pageHTML string
	snapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.runActions(snapCtx, chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return pageHTML, nil
}

// runActions executes chromedp actions, respecting both the session lifetime
// (s.ctx) and the incoming request context (ctx).
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}
