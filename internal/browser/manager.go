// Package browser drives headless Chrome tabs over CDP. Each target gets its
// own tab (a Session); the Manager owns the browser process lifecycle.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
	"github.com/maheshrjl/reraharvest/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager handles the browser process lifecycle and session creation. It
// implements schemas.SessionProvider.
type Manager struct {
	logger   *zap.Logger
	cfg      *config.Config
	resolver InstructionResolver

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup // Ensures all sessions are closed before browser shutdown.

	// The browser process is launched lazily on the first session request.
	initOnce sync.Once
	initErr  error
}

var _ schemas.SessionProvider = (*Manager)(nil)

// NewManager creates a browser manager. The browser process itself is not
// launched until the first session is requested.
func NewManager(ctx context.Context, cfg *config.Config, res InstructionResolver, logger *zap.Logger) *Manager {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(cfg)...)

	m := &Manager{
		logger:      logger.Named("browser_manager"),
		cfg:         cfg,
		resolver:    res,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sessions:    make(map[string]*Session),
	}
	m.logger.Info("Browser manager created (launch deferred).")
	return m
}

// execOptions translates the application config into chromedp allocator options.
func execOptions(cfg *config.Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
	)

	if !cfg.Browser.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	for _, arg := range cfg.Browser.Args {
		if !strings.Contains(arg, "=") {
			opts = append(opts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		opts = append(opts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
	}
	return opts
}

// initialize launches the browser process.
func (m *Manager) initialize() error {
	m.initOnce.Do(func() {
		m.logger.Info("Launching browser...")

		m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx)
		if err := chromedp.Run(m.browserCtx); err != nil {
			m.initErr = fmt.Errorf("failed to launch browser process: %w", err)
			return
		}
		m.logger.Info("Browser launched.")
	})
	return m.initErr
}

// NewPageSession provisions a fresh tab, initialized and ready for navigation.
func (m *Manager) NewPageSession(ctx context.Context) (schemas.PageSession, error) {
	if err := m.initialize(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled before session creation: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)

	session := NewSession(tabCtx, tabCancel, m.cfg, m.resolver, m.logger)

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	if err := session.Initialize(ctx); err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session.Close(cleanupCtx)
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("New page session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// Shutdown gracefully closes all sessions and the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	m.mu.RLock()
	sessionsToClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.RUnlock()

	for _, s := range sessionsToClose {
		go func(s *Session) {
			if err := s.Close(ctx); err != nil {
				m.logger.Warn("Error during session close in shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions closed gracefully.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close. Proceeding with forceful shutdown.", zap.Error(ctx.Err()))
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Grace period elapsed waiting for sessions to close.")
	}

	if m.browserCancel != nil {
		m.browserCancel()
	}
	m.allocCancel()

	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
