package browser

import "context"

// CombineContext creates a new context derived from ctx1 (the session context,
// which carries the CDP connection info) that is canceled when either ctx1 or
// ctx2 (the operational context) is canceled. Values come from ctx1, which is
// what chromedp needs to route actions to the right target.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
