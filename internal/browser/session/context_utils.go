// internal/browser/session/context_utils.go
package session

import (
	"context"
	"time"
)

// CombineContext returns a context derived from primary, so it carries
// primary's values (the chromedp target), that is also canceled when
// secondary is done. Keyword calls pass their own deadline as secondary while
// the window context supplies the CDP connection.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// valueOnlyContext keeps its parent's values but none of its cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context with ctx's values that is never canceled. A browser
// outlives the keyword call that launched it, so its allocator is rooted in a
// detached context.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
