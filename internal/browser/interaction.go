package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

const actionTimeout = 30 * time.Second

// Navigate loads the URL and waits for the page to stabilize, bounded by the
// caller's timeout. The portal is slow enough that callers routinely pass
// multi-minute bounds.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	s.logger.Debug("Navigating to URL", zap.String("url", url), zap.Duration("timeout", timeout))

	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	if timeout <= 0 {
		timeout = s.cfg.Network.NavigationTimeout
	}
	navCtx, navCancel := context.WithTimeout(opCtx, timeout)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", timeout, err)
		}
		if opCtx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", opCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.stabilize(navCtx)
	return nil
}

// stabilize waits for the DOM to be ready and the network to go quiet.
// Failures here are non-fatal; the flows verify readiness explicitly.
func (s *Session) stabilize(ctx context.Context) {
	if err := chromedp.Run(ctx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		s.logger.Debug("WaitReady failed during stabilization.", zap.Error(err))
		return
	}
	if s.monitor != nil {
		if err := s.monitor.WaitIdle(ctx, s.cfg.Network.QuietPeriod); err != nil {
			s.logger.Debug("Network idle wait failed during stabilization.", zap.Error(err))
		}
	}
}

// ExecuteAction replays a resolved low-level action against the page.
func (s *Session) ExecuteAction(ctx context.Context, action schemas.CachedAction) error {
	s.logger.Debug("Executing action",
		zap.String("kind", string(action.Kind)),
		zap.String("selector", action.Selector),
	)

	opt := selectorOption(action.SelectorKind)

	var tasks chromedp.Tasks
	switch action.Kind {
	case schemas.ActionClick:
		tasks = chromedp.Tasks{
			chromedp.ScrollIntoView(action.Selector, opt),
			chromedp.WaitVisible(action.Selector, opt),
			chromedp.Click(action.Selector, opt),
		}
	case schemas.ActionFill:
		tasks = chromedp.Tasks{
			chromedp.ScrollIntoView(action.Selector, opt),
			chromedp.WaitVisible(action.Selector, opt),
			chromedp.Clear(action.Selector, opt),
			chromedp.SendKeys(action.Selector, action.Value, opt),
		}
	case schemas.ActionPress:
		chord, err := keyChord(action.Value)
		if err != nil {
			return err
		}
		tasks = chromedp.Tasks{
			chromedp.WaitVisible(action.Selector, opt),
			chromedp.SendKeys(action.Selector, chord, opt),
		}
	case schemas.ActionSelect:
		tasks = chromedp.Tasks{
			chromedp.ScrollIntoView(action.Selector, opt),
			chromedp.WaitVisible(action.Selector, opt),
			chromedp.SetValue(action.Selector, action.Value, opt),
		}
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}

	actCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	if err := s.runActions(actCtx, tasks); err != nil {
		return fmt.Errorf("%s action failed for selector %q: %w", action.Kind, action.Selector, err)
	}
	return nil
}

// PressKey dispatches a keyboard key to the currently focused element.
func (s *Session) PressKey(ctx context.Context, key string) error {
	chord, err := keyChord(key)
	if err != nil {
		return err
	}

	keyCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	if err := s.runActions(keyCtx, chromedp.KeyEvent(chord)); err != nil {
		return fmt.Errorf("key press %q failed: %w", key, err)
	}
	return nil
}

// WaitForText blocks until an element containing the text is present, failing
// when the timeout elapses.
func (s *Session) WaitForText(ctx context.Context, text string, timeout time.Duration) error {
	s.logger.Debug("Waiting for text", zap.String("text", text), zap.Duration("timeout", timeout))

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	query := fmt.Sprintf(`//*[contains(normalize-space(.), %s)]`, xpathLiteral(text))
	if err := s.runActions(waitCtx, chromedp.WaitReady(query, chromedp.BySearch)); err != nil {
		if waitCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("text %q did not appear within %s", text, timeout)
		}
		return fmt.Errorf("wait for text %q failed: %w", text, err)
	}
	return nil
}

// WaitForNetworkIdle blocks until no requests have been in flight for the
// configured quiet period. An idle wait that times out is non-fatal on this
// portal; only cancellation of the caller's context is surfaced.
func (s *Session) WaitForNetworkIdle(ctx context.Context) error {
	idleCtx, cancel := context.WithTimeout(ctx, s.cfg.Network.IdleWaitTimeout)
	defer cancel()

	opCtx, opCancel := CombineContext(s.ctx, idleCtx)
	defer opCancel()

	if err := s.monitor.WaitIdle(opCtx, s.cfg.Network.QuietPeriod); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("Network did not go idle within the wait bound.", zap.Error(err))
	}
	return nil
}

func selectorOption(kind schemas.SelectorKind) chromedp.QueryOption {
	if kind == schemas.SelectorXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// keyChord maps a human-readable key name to the rune chord the CDP keyboard
// layer expects.
var keyChords = map[string]string{
	"Enter":     kb.Enter,
	"Tab":       kb.Tab,
	"Escape":    kb.Escape,
	"Backspace": kb.Backspace,
	"Delete":    kb.Delete,
	"ArrowDown": kb.ArrowDown,
	"ArrowUp":   kb.ArrowUp,
}

func keyChord(name string) (string, error) {
	if chord, ok := keyChords[name]; ok {
		return chord, nil
	}
	if len([]rune(name)) == 1 {
		return name, nil
	}
	return "", fmt.Errorf("unsupported key %q", name)
}

// xpathLiteral quotes a string for embedding in an XPath expression. XPath 1.0
// has no escape sequence inside string literals, so strings containing both
// quote characters need the concat() form.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var sb strings.Builder
	sb.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			sb.WriteString(`, "'", `)
		}
		sb.WriteString("'" + p + "'")
	}
	sb.WriteString(")")
	return sb.String()
}
