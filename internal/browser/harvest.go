package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

// harvestLinksJS collects every anchor that points at something fetchable,
// with its visible text. Fragment-only and javascript: pseudo-links carry no
// payload and are skipped.
const harvestLinksJS = `(function() {
	const links = [];
	document.querySelectorAll('a[href]').forEach(a => {
		const raw = a.getAttribute('href') || '';
		if (!raw || raw === '#' || raw.startsWith('javascript:')) { return; }
		let text = (a.innerText || a.textContent || '').trim();
		if (!text) { text = a.getAttribute('title') || ''; }
		// a.href yields the resolved absolute URL.
		links.push({ text: text, url: a.href });
	});
	return links;
})()`

// HarvestDownloadLinks collects every link element on the current page,
// independent of any metadata extraction, so a reconciliation step can match
// extracted document names against real URLs.
func (s *Session) HarvestDownloadLinks(ctx context.Context) ([]schemas.DocumentLinkRecord, error) {
	var links []schemas.DocumentLinkRecord

	harvestCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.runActions(harvestCtx, chromedp.Evaluate(harvestLinksJS, &links)); err != nil {
		return nil, fmt.Errorf("link harvest failed: %w", err)
	}

	s.logger.Debug("Harvested page links.", zap.Int("count", len(links)))
	return links, nil
}
