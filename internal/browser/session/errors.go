// internal/browser/session/errors.go
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
)

var (
	// ErrUnexpectedAlert is returned by page queries while a dialog blocks the
	// focused window. It is not transient: the dialog stays until a keyword
	// handles it.
	ErrUnexpectedAlert = errors.New("unexpected alert open")
	// ErrOperationTimeout is returned when the browser does not answer a
	// single command within the session's operation timeout.
	ErrOperationTimeout = errors.New("browser operation timed out")

	errDialogOpened = fmt.Errorf("%w while the command was running", ErrUnexpectedAlert)
)

// protocolErrors maps DevTools and page-script failure messages onto the
// driver error vocabulary. Order matters: the first match wins.
var protocolErrors = []struct {
	fragment string
	sentinel error
}{
	{staleMarker, driver.ErrStaleElement},
	{noFrameMarker, driver.ErrNoSuchFrame},
	{"Could not find object with given id", driver.ErrStaleElement},
	{"Cannot find context with specified id", driver.ErrStaleElement},
	{"Execution context was destroyed", driver.ErrStaleElement},
	{"Inspected target navigated or closed", driver.ErrStaleElement},
	{"No target with given id", driver.ErrNoSuchWindow},
	{"No dialog is showing", driver.ErrNoAlert},
}

// classifyMessage translates a raw chromedp error into a driver error. Errors
// it does not recognise are returned unchanged.
func classifyMessage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, chromedp.ErrInvalidContext) {
		return fmt.Errorf("%w: %v", driver.ErrSessionClosed, err)
	}
	msg := err.Error()
	for _, pe := range protocolErrors {
		if strings.Contains(msg, pe.fragment) {
			return fmt.Errorf("%w: %v", pe.sentinel, err)
		}
	}
	return err
}
