// internal/browser/session/interfaces.go
package session

import (
	"context"

	"github.com/chromedp/chromedp"
)

// ActionExecutor runs chromedp actions against the focused window. The
// implementation combines the operational context with the long-lived
// window context so that actions carry the CDP connection information.
type ActionExecutor interface {
	RunActions(ctx context.Context, actions ...chromedp.Action) error
}
