// internal/keywords/library.go
package keywords

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/conditions"
	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
	"github.com/xkilldash9x/webdriver-keywords/internal/wait"
)

// ErrNoSession is returned by keywords that need a browser when none is open.
var ErrNoSession = errors.New("no browser session is open")

// ErrInvalidArgument marks keyword arguments rejected before touching the
// browser.
var ErrInvalidArgument = errors.New("invalid keyword argument")

// Default session settings.
const (
	DefaultElementTimeout = 30 * time.Second
	DefaultScreenshotDir  = "./scrshots"
	screenshotLayout      = "0102150405"
)

// Launcher starts a browser session.
type Launcher interface {
	Launch(ctx context.Context, browserName string) (driver.Browser, error)
}

// Options seeds a Library's session settings.
type Options struct {
	ElementTimeout  time.Duration
	WaitAfterAction time.Duration
	PollInterval    time.Duration
	ScreenshotDir   string
}

// DefaultOptions returns the settings a fresh library starts with.
func DefaultOptions() Options {
	return Options{
		ElementTimeout: DefaultElementTimeout,
		PollInterval:   wait.DefaultPollInterval,
		ScreenshotDir:  DefaultScreenshotDir,
	}
}

// Library holds the single active browser session and implements every
// keyword on top of it. State-dependent keywords resolve their locator, wait
// for a condition once, then perform one driver action.
//
// A Library is owned by one calling sequence and is not safe for concurrent
// use.
type Library struct {
	launcher Launcher
	logger   *zap.Logger

	browser         driver.Browser
	elementTimeout  time.Duration
	waitAfterAction time.Duration
	pollInterval    time.Duration
	screenshotDir   string

	now func() time.Time
}

// NewLibrary creates a library with no open session.
func NewLibrary(launcher Launcher, opts Options, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = DefaultScreenshotDir
	}
	return &Library{
		launcher:        launcher,
		logger:          logger.Named("keywords"),
		elementTimeout:  opts.ElementTimeout,
		waitAfterAction: opts.WaitAfterAction,
		pollInterval:    opts.PollInterval,
		screenshotDir:   opts.ScreenshotDir,
		now:             time.Now,
	}
}

// ElementTimeout returns the current element-wait timeout.
func (l *Library) ElementTimeout() time.Duration { return l.elementTimeout }

// WaitAfterAction returns the current post-action delay.
func (l *Library) WaitAfterAction() time.Duration { return l.waitAfterAction }

// Active reports whether a browser session is open.
func (l *Library) Active() bool { return l.browser != nil }

func (l *Library) session() (driver.Browser, error) {
	if l.browser == nil {
		return nil, ErrNoSession
	}
	return l.browser, nil
}

func (l *Library) waitConfig() wait.Config {
	return wait.Config{
		Timeout:  l.elementTimeout,
		Interval: l.pollInterval,
		Logger:   l.logger,
	}
}

// pause applies the post-action delay.
func (l *Library) pause(ctx context.Context) error {
	if l.waitAfterAction <= 0 {
		return nil
	}
	timer := time.NewTimer(l.waitAfterAction)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// locate applies the post-action delay and resolves the locator.
func (l *Library) locate(ctx context.Context, by, id string) (locator.Locator, error) {
	if err := l.pause(ctx); err != nil {
		return locator.Locator{}, err
	}
	return locator.Resolve(by, id)
}

// await runs cond against the open session with the library's settings.
func await[T any](ctx context.Context, l *Library, cond wait.Condition[T]) (T, error) {
	var zero T
	b, err := l.session()
	if err != nil {
		return zero, err
	}
	return wait.Until(ctx, b, cond, l.waitConfig())
}

// element resolves by/id and waits for cond on it.
func (l *Library) element(ctx context.Context, by, id string, cond func(locator.Locator) wait.Condition[driver.Element]) (driver.Browser, driver.Element, error) {
	b, err := l.session()
	if err != nil {
		return nil, driver.Element{}, err
	}
	loc, err := l.locate(ctx, by, id)
	if err != nil {
		return nil, driver.Element{}, err
	}
	el, err := await(ctx, l, cond(loc))
	if err != nil {
		return nil, driver.Element{}, err
	}
	return b, el, nil
}

func seconds(n int) (time.Duration, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: seconds must be >= 0, got %d", ErrInvalidArgument, n)
	}
	return time.Duration(n) * time.Second, nil
}

// -- Session settings --

// SetFindElementTimeout sets how long state-dependent keywords wait.
func (l *Library) SetFindElementTimeout(timeoutSeconds int) error {
	d, err := seconds(timeoutSeconds)
	if err != nil {
		return err
	}
	l.elementTimeout = d
	l.logger.Debug("Element timeout updated.", zap.Duration("timeout", d))
	return nil
}

// SetWaitAfterAction sets the delay inserted before locator resolution.
func (l *Library) SetWaitAfterAction(waitSeconds int) error {
	d, err := seconds(waitSeconds)
	if err != nil {
		return err
	}
	l.waitAfterAction = d
	l.logger.Debug("Post-action delay updated.", zap.Duration("delay", d))
	return nil
}

// -- Browser lifecycle --

// OpenBrowser launches a browser, replacing (and closing) any open session,
// and loads about:blank.
func (l *Library) OpenBrowser(ctx context.Context, browserName string) error {
	if l.browser != nil {
		l.logger.Info("Replacing open browser session.", zap.String("session_id", l.browser.ID()))
		if err := l.browser.Quit(ctx); err != nil {
			l.logger.Warn("Failed to close previous session.", zap.Error(err))
		}
		l.browser = nil
	}

	b, err := l.launcher.Launch(ctx, browserName)
	if err != nil {
		return fmt.Errorf("failed to open %s browser: %w", browserName, err)
	}
	if err := b.Navigate(ctx, "about:blank"); err != nil {
		_ = b.Quit(ctx)
		return fmt.Errorf("failed to load blank page: %w", err)
	}
	l.browser = b
	l.logger.Info("Browser session opened.", zap.String("browser", browserName), zap.String("session_id", b.ID()))
	return nil
}

// CloseBrowser quits the session. The session is invalidated even if the
// browser fails to close cleanly.
func (l *Library) CloseBrowser(ctx context.Context) error {
	b, err := l.session()
	if err != nil {
		return err
	}
	l.browser = nil
	if err := b.Quit(ctx); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	l.logger.Info("Browser session closed.", zap.String("session_id", b.ID()))
	return nil
}

// NavigateToURL loads url in the focused window.
func (l *Library) NavigateToURL(ctx context.Context, url string) error {
	b, err := l.session()
	if err != nil {
		return err
	}
	return b.Navigate(ctx, url)
}

// ClearBrowserData deletes all cookies.
func (l *Library) ClearBrowserData(ctx context.Context) error {
	b, err := l.session()
	if err != nil {
		return err
	}
	return b.DeleteAllCookies(ctx)
}

// SetBrowserWindowSize resizes the focused window.
func (l *Library) SetBrowserWindowSize(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: window size must be positive, got %dx%d", ErrInvalidArgument, width, height)
	}
	b, err := l.session()
	if err != nil {
		return err
	}
	return b.SetWindowSize(ctx, width, height)
}

// GetBrowserWindowLocation returns the window position as "(x, y)".
func (l *Library) GetBrowserWindowLocation(ctx context.Context) (string, error) {
	b, err := l.session()
	if err != nil {
		return "", err
	}
	p, err := b.WindowPosition(ctx)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// GetPageTitle returns the focused document's title.
func (l *Library) GetPageTitle(ctx context.Context) (string, error) {
	b, err := l.session()
	if err != nil {
		return "", err
	}
	if err := l.pause(ctx); err != nil {
		return "", err
	}
	return b.Title(ctx)
}

// GetPageScreenshot writes a PNG of the viewport into the screenshot
// directory and returns its path.
func (l *Library) GetPageScreenshot(ctx context.Context) (string, error) {
	b, err := l.session()
	if err != nil {
		return "", err
	}
	png, err := b.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	dir, err := homedir.Expand(l.screenshotDir)
	if err != nil {
		return "", fmt.Errorf("failed to expand screenshot directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	path := filepath.Join(dir, l.now().Format(screenshotLayout)+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	l.logger.Info("Screenshot saved.", zap.String("path", path))
	return path, nil
}

// ExecuteJavascript runs script in the current document and returns its
// result as a string.
func (l *Library) ExecuteJavascript(ctx context.Context, script string) (string, error) {
	b, err := l.session()
	if err != nil {
		return "", err
	}
	if err := l.pause(ctx); err != nil {
		return "", err
	}
	return b.ExecuteScript(ctx, script)
}

// -- Element actions --

// ClickElement waits for the element to be clickable and clicks it.
func (l *Library) ClickElement(ctx context.Context, by, id string) error {
	b, el, err := l.element(ctx, by, id, conditions.ElementClickable)
	if err != nil {
		return err
	}
	return b.Click(ctx, el)
}

// WriteTextToField clears a visible field and types text into it.
func (l *Library) WriteTextToField(ctx context.Context, by, id, text string) error {
	b, el, err := l.element(ctx, by, id, conditions.ElementVisible)
	if err != nil {
		return err
	}
	if err := b.Clear(ctx, el); err != nil {
		return err
	}
	return b.SendKeys(ctx, el, text)
}

// SelectDropdownItem selects the option whose visible text equals text.
func (l *Library) SelectDropdownItem(ctx context.Context, by, id, text string) error {
	b, el, err := l.element(ctx, by, id, conditions.ElementVisible)
	if err != nil {
		return err
	}
	return b.SelectByVisibleText(ctx, el, text)
}

// SelectCheckbox ticks a visible checkbox if it is not already ticked.
func (l *Library) SelectCheckbox(ctx context.Context, by, id string) error {
	return l.setCheckbox(ctx, by, id, true)
}

// UnselectCheckbox unticks a visible checkbox if it is ticked.
func (l *Library) UnselectCheckbox(ctx context.Context, by, id string) error {
	return l.setCheckbox(ctx, by, id, false)
}

func (l *Library) setCheckbox(ctx context.Context, by, id string, want bool) error {
	b, el, err := l.element(ctx, by, id, conditions.ElementVisible)
	if err != nil {
		return err
	}
	selected, err := b.IsSelected(ctx, el)
	if err != nil {
		return err
	}
	if selected == want {
		return nil
	}
	return b.Click(ctx, el)
}

// GetTextOfElement returns the element's rendered text with line breaks
// flattened to spaces.
func (l *Library) GetTextOfElement(ctx context.Context, by, id string) (string, error) {
	b, el, err := l.element(ctx, by, id, conditions.ElementPresent)
	if err != nil {
		return "", err
	}
	text, err := b.Text(ctx, el)
	if err != nil {
		return "", err
	}
	return conditions.NormalizeText(text), nil
}

// ElementExists waits for the element to be visible.
func (l *Library) ElementExists(ctx context.Context, by, id string) error {
	_, _, err := l.element(ctx, by, id, conditions.ElementVisible)
	return err
}

// ElementDoesNotExist waits for the element to be missing or invisible.
func (l *Library) ElementDoesNotExist(ctx context.Context, by, id string) error {
	loc, err := l.locate(ctx, by, id)
	if err != nil {
		return err
	}
	_, err = await(ctx, l, conditions.InvisibilityOf(loc))
	return err
}

func (l *Library) elementText(ctx context.Context, by, id, text string, mode conditions.TextMode, negate bool) error {
	loc, err := l.locate(ctx, by, id)
	if err != nil {
		return err
	}
	cond := conditions.TextMatches(loc, text, mode)
	if negate {
		_, err = await(ctx, l, conditions.Not(cond))
	} else {
		_, err = await(ctx, l, cond)
	}
	return err
}

// ElementTextContains waits until the element's text contains text.
func (l *Library) ElementTextContains(ctx context.Context, by, id, text string) error {
	return l.elementText(ctx, by, id, text, conditions.Contains, false)
}

// ElementTextEquals waits until the element's text equals text.
func (l *Library) ElementTextEquals(ctx context.Context, by, id, text string) error {
	return l.elementText(ctx, by, id, text, conditions.Equals, false)
}

// ElementTextNotContains waits until the element's text no longer contains text.
func (l *Library) ElementTextNotContains(ctx context.Context, by, id, text string) error {
	return l.elementText(ctx, by, id, text, conditions.Contains, true)
}

// ElementTextNotEquals waits until the element's text differs from text.
func (l *Library) ElementTextNotEquals(ctx context.Context, by, id, text string) error {
	return l.elementText(ctx, by, id, text, conditions.Equals, true)
}

// -- Dialogs, frames and windows --

// ClickPopupOk accepts the open dialog once one appears.
func (l *Library) ClickPopupOk(ctx context.Context) error {
	b, err := l.session()
	if err != nil {
		return err
	}
	if _, err := await(ctx, l, conditions.AlertPresent()); err != nil {
		return err
	}
	return b.AcceptAlert(ctx)
}

// ClickPopupCancel dismisses the open dialog once one appears.
func (l *Library) ClickPopupCancel(ctx context.Context) error {
	b, err := l.session()
	if err != nil {
		return err
	}
	if _, err := await(ctx, l, conditions.AlertPresent()); err != nil {
		return err
	}
	return b.DismissAlert(ctx)
}

// SwitchToFrame moves into the frame with the given id or name once it is
// available.
func (l *Library) SwitchToFrame(ctx context.Context, id string) error {
	_, err := await(ctx, l, conditions.FrameAvailable(id))
	return err
}

// SwitchToDefaultContext leaves any frame for the top-level document.
func (l *Library) SwitchToDefaultContext(ctx context.Context) error {
	b, err := l.session()
	if err != nil {
		return err
	}
	return b.SwitchToDefaultContent(ctx)
}

func (l *Library) switchWindow(ctx context.Context, search conditions.WindowSearch) error {
	h, err := await(ctx, l, conditions.Window(search))
	if err != nil {
		return err
	}
	l.logger.Debug("Switched window.", zap.String("handle", string(h)))
	return nil
}

// SwitchToWindowWithTitle focuses the first window whose title contains title.
func (l *Library) SwitchToWindowWithTitle(ctx context.Context, title string) error {
	return l.switchWindow(ctx, conditions.WindowSearch{ProbeScript: conditions.TitleProbe, Target: title})
}

// SwitchToWindowWithURL focuses the first window whose URL contains url.
func (l *Library) SwitchToWindowWithURL(ctx context.Context, url string) error {
	return l.switchWindow(ctx, conditions.WindowSearch{ProbeScript: conditions.URLProbe, Target: url})
}

// SwitchToNextWindow focuses the first window other than the current one.
func (l *Library) SwitchToNextWindow(ctx context.Context) error {
	return l.switchWindow(ctx, conditions.WindowSearch{Mode: conditions.MatchNext})
}

// -- Mouse --

// DragAndDrop drags one visible element onto another.
func (l *Library) DragAndDrop(ctx context.Context, by1, id1, by2, id2 string) error {
	b, src, err := l.element(ctx, by1, id1, conditions.ElementVisible)
	if err != nil {
		return err
	}
	_, dst, err := l.element(ctx, by2, id2, conditions.ElementVisible)
	if err != nil {
		return err
	}
	return b.DragAndDrop(ctx, src, dst)
}

// DragAndDropBy drags a visible element by a pixel offset.
func (l *Library) DragAndDropBy(ctx context.Context, by, id string, dx, dy int) error {
	b, el, err := l.element(ctx, by, id, conditions.ElementVisible)
	if err != nil {
		return err
	}
	return b.DragAndDropBy(ctx, el, dx, dy)
}

func (l *Library) mouse(ctx context.Context, by, id string, act func(driver.Browser, context.Context, driver.Element) error) error {
	b, el, err := l.element(ctx, by, id, conditions.ElementVisible)
	if err != nil {
		return err
	}
	return act(b, ctx, el)
}

// MouseDownOnElement presses the left button over a visible element.
func (l *Library) MouseDownOnElement(ctx context.Context, by, id string) error {
	return l.mouse(ctx, by, id, driver.Browser.MouseDown)
}

// MouseUpOnElement releases the left button over a visible element.
func (l *Library) MouseUpOnElement(ctx context.Context, by, id string) error {
	return l.mouse(ctx, by, id, driver.Browser.MouseUp)
}

// HoverOnElement moves the pointer over a visible element.
func (l *Library) HoverOnElement(ctx context.Context, by, id string) error {
	return l.mouse(ctx, by, id, driver.Browser.Hover)
}

// DoubleClickOnElement double-clicks a visible element.
func (l *Library) DoubleClickOnElement(ctx context.Context, by, id string) error {
	return l.mouse(ctx, by, id, driver.Browser.DoubleClick)
}

// RightClickOnElement opens the context menu on a visible element.
func (l *Library) RightClickOnElement(ctx context.Context, by, id string) error {
	return l.mouse(ctx, by, id, driver.Browser.RightClick)
}

// ClickOffsetOnElement clicks at an offset from the centre of a visible
// element.
func (l *Library) ClickOffsetOnElement(ctx context.Context, by, id string, dx, dy int) error {
	b, el, err := l.element(ctx, by, id, conditions.ElementVisible)
	if err != nil {
		return err
	}
	return b.ClickOffset(ctx, el, dx, dy)
}
