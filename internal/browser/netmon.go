package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// NetworkMonitor tracks in-flight network requests on a tab so callers can
// wait for the page to go quiet. The portal renders tab panels through
// XHR-triggered postbacks, so "navigation finished" alone says nothing about
// whether the data landed.
type NetworkMonitor struct {
	logger *zap.Logger

	// The context of the browser tab this monitor is attached to.
	sessionCtx context.Context
	// A separate context for the listener so it can be stopped cleanly.
	listenerCtx    context.Context
	cancelListener context.CancelFunc

	inflight  map[network.RequestID]bool
	lock      sync.RWMutex
	isStarted bool
}

// NewNetworkMonitor creates a monitor for a specific tab context.
func NewNetworkMonitor(sessionCtx context.Context, logger *zap.Logger) *NetworkMonitor {
	return &NetworkMonitor{
		sessionCtx: sessionCtx,
		logger:     logger.Named("netmon"),
		inflight:   make(map[network.RequestID]bool),
	}
}

// Start enables the network domain and begins tracking request lifecycles.
func (m *NetworkMonitor) Start() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.isStarted {
		return nil
	}

	m.listenerCtx, m.cancelListener = context.WithCancel(m.sessionCtx)

	chromedp.ListenTarget(m.listenerCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			m.track(e.RequestID)
		case *network.EventLoadingFinished:
			m.untrack(e.RequestID)
		case *network.EventLoadingFailed:
			m.untrack(e.RequestID)
		}
	})

	if err := chromedp.Run(m.sessionCtx, network.Enable()); err != nil {
		m.cancelListener()
		return err
	}

	m.isStarted = true
	m.logger.Debug("Network monitor started.")
	return nil
}

// Stop halts event tracking.
func (m *NetworkMonitor) Stop() {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.cancelListener != nil {
		m.cancelListener()
		m.cancelListener = nil
	}
	m.isStarted = false
}

// WaitIdle polls until no requests have been in flight for quietPeriod. It
// returns the context error if the wait is aborted.
func (m *NetworkMonitor) WaitIdle(ctx context.Context, quietPeriod time.Duration) error {
	ticker := time.NewTicker(quietPeriod / 2)
	defer ticker.Stop()

	lastActivity := time.Now()
	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("WaitIdle aborted.", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			m.lock.RLock()
			inflightCount := len(m.inflight)
			m.lock.RUnlock()

			if inflightCount > 0 {
				lastActivity = time.Now()
				m.logger.Debug("Waiting for network idle...", zap.Int("inflight_requests", inflightCount))
			} else if time.Since(lastActivity) >= quietPeriod {
				return nil
			}
		}
	}
}

func (m *NetworkMonitor) track(id network.RequestID) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.inflight[id] = true
}

func (m *NetworkMonitor) untrack(id network.RequestID) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.inflight, id)
}

// inflightCount is exposed for tests.
func (m *NetworkMonitor) inflightCount() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.inflight)
}
