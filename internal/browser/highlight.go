package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

const highlightOverlayID = "__reraharvest_highlight"

// highlightJS draws a bordered overlay over the element's bounding box. The
// element is located with the same selector the action will use, so the
// overlay shows exactly what is about to be interacted with.
const highlightJS = `(function(selector, isXPath) {
	let el = null;
	if (isXPath) {
		el = document.evaluate(selector, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	} else {
		el = document.querySelector(selector);
	}
	if (!el || !el.getBoundingClientRect) { return false; }

	let overlay = document.getElementById('%s');
	if (!overlay) {
		overlay = document.createElement('div');
		overlay.id = '%s';
		overlay.style.position = 'fixed';
		overlay.style.zIndex = '2147483647';
		overlay.style.pointerEvents = 'none';
		overlay.style.border = '3px solid #e53935';
		overlay.style.borderRadius = '2px';
		overlay.style.boxShadow = '0 0 0 2000px rgba(0,0,0,0.08)';
		document.documentElement.appendChild(overlay);
	}
	const r = el.getBoundingClientRect();
	overlay.style.left = (r.left - 3) + 'px';
	overlay.style.top = (r.top - 3) + 'px';
	overlay.style.width = (r.width + 6) + 'px';
	overlay.style.height = (r.height + 6) + 'px';
	return true;
})(%s, %t)`

const clearHighlightJS = `(function() {
	const overlay = document.getElementById('%s');
	if (overlay) { overlay.remove(); }
})()`

// Highlight draws an advisory overlay over the action's target element, then
// holds it for the configured pause so a human watching the run can see what
// the resolver picked. Purely observational.
func (s *Session) Highlight(ctx context.Context, action schemas.CachedAction) error {
	if !s.cfg.Browser.Highlight {
		return nil
	}

	selector, err := json.Marshal(action.Selector)
	if err != nil {
		return err
	}
	isXPath := action.SelectorKind == schemas.SelectorXPath
	script := fmt.Sprintf(highlightJS, highlightOverlayID, highlightOverlayID, selector, isXPath)

	hlCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var drawn bool
	if err := s.runActions(hlCtx, chromedp.Evaluate(script, &drawn)); err != nil {
		return fmt.Errorf("highlight failed for selector %q: %w", action.Selector, err)
	}
	if !drawn {
		return fmt.Errorf("highlight target not found for selector %q", action.Selector)
	}

	if pause := s.cfg.Browser.HighlightPause; pause > 0 {
		select {
		case <-time.After(pause):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ClearHighlight removes any overlay drawn by Highlight.
func (s *Session) ClearHighlight(ctx context.Context) error {
	script := fmt.Sprintf(clearHighlightJS, highlightOverlayID)

	clearCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.runActions(clearCtx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("clearing highlight failed: %w", err)
	}
	return nil
}
