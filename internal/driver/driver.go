// internal/driver/driver.go
package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
)

// Driver errors. Absence errors (no such element, alert, frame or window) and
// stale references describe page state that may change on the next poll;
// ErrSessionClosed is terminal.
var (
	ErrNoSuchElement = errors.New("no such element")
	ErrStaleElement  = errors.New("stale element reference")
	ErrNoAlert       = errors.New("no alert open")
	ErrNoSuchFrame   = errors.New("no such frame")
	ErrNoSuchWindow  = errors.New("no such window")
	ErrSessionClosed = errors.New("browser session is closed")
)

// IsTransient reports whether err describes page state that a later poll may
// observe differently.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStaleElement) ||
		errors.Is(err, ErrNoSuchElement) ||
		errors.Is(err, ErrNoAlert) ||
		errors.Is(err, ErrNoSuchFrame) ||
		errors.Is(err, ErrNoSuchWindow)
}

// WindowHandle is an opaque identifier for one browser window or tab.
type WindowHandle string

// Element is a reference to a node found in the live document. It is only
// valid until the page mutates; operations on a replaced node fail with
// ErrStaleElement.
type Element struct {
	ID      string
	Locator locator.Locator
}

func (e Element) String() string {
	return fmt.Sprintf("element %s (%s)", e.ID, e.Locator)
}

// Alert describes an open modal dialog.
type Alert struct {
	Type    string
	Message string
}

// Point is a pixel position on screen.
type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Driver is the capability the condition engine polls. Implementations must
// query the live page on every call.
type Driver interface {
	// FindElement returns the first element matching loc, or ErrNoSuchElement
	// when the query ran and matched nothing.
	FindElement(ctx context.Context, loc locator.Locator) (Element, error)
	// Text returns the rendered text of el.
	Text(ctx context.Context, el Element) (string, error)
	IsVisible(ctx context.Context, el Element) (bool, error)
	IsEnabled(ctx context.Context, el Element) (bool, error)

	// WindowHandles lists the open windows in driver-reported order.
	WindowHandles(ctx context.Context) ([]WindowHandle, error)
	CurrentWindowHandle(ctx context.Context) (WindowHandle, error)
	SwitchToWindow(ctx context.Context, h WindowHandle) error

	// ExecuteScript runs a function body (which may use `return`) in the
	// current document and returns its result as a string.
	ExecuteScript(ctx context.Context, script string) (string, error)

	// Alert returns the open dialog, or ErrNoAlert.
	Alert(ctx context.Context) (Alert, error)

	// SwitchToFrame moves the document context into the frame with the given
	// id or name, or fails with ErrNoSuchFrame.
	SwitchToFrame(ctx context.Context, frame string) error
}

// Browser is a full browser session: the polling capability plus the
// side-effecting operations keywords perform once a condition is satisfied.
type Browser interface {
	Driver

	ID() string
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	Quit(ctx context.Context) error
	DeleteAllCookies(ctx context.Context) error
	SetWindowSize(ctx context.Context, width, height int) error
	WindowPosition(ctx context.Context) (Point, error)
	Screenshot(ctx context.Context) ([]byte, error)
	SwitchToDefaultContent(ctx context.Context) error

	AcceptAlert(ctx context.Context) error
	DismissAlert(ctx context.Context) error

	Click(ctx context.Context, el Element) error
	Clear(ctx context.Context, el Element) error
	SendKeys(ctx context.Context, el Element, text string) error
	SelectByVisibleText(ctx context.Context, el Element, text string) error
	IsSelected(ctx context.Context, el Element) (bool, error)

	DragAndDrop(ctx context.Context, src, dst Element) error
	DragAndDropBy(ctx context.Context, el Element, dx, dy int) error
	MouseDown(ctx context.Context, el Element) error
	MouseUp(ctx context.Context, el Element) error
	Hover(ctx context.Context, el Element) error
	DoubleClick(ctx context.Context, el Element) error
	RightClick(ctx context.Context, el Element) error
	ClickOffset(ctx context.Context, el Element, dx, dy int) error
}
