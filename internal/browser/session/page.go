// internal/browser/session/page.go
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
)

// Navigate loads url in the focused window and returns to its top document.
// Element references from the previous document are released.
func (s *Session) Navigate(ctx context.Context, url string) error {
	err := s.RunActions(ctx,
		runtime.ReleaseObjectGroup(objectGroup),
		chromedp.Navigate(url),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
	s.logger.Debug("Navigated.", zap.String("url", url))
	return nil
}

// Title returns the title of the focused window's top document.
func (s *Session) Title(ctx context.Context) (string, error) {
	h, _, _, err := s.focused()
	if err != nil {
		return "", err
	}
	if err := s.checkDialog(h); err != nil {
		return "", err
	}
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// ExecuteScript runs script as a function body in the current document.
func (s *Session) ExecuteScript(ctx context.Context, script string) (string, error) {
	_, _, frames, err := s.focused()
	if err != nil {
		return "", err
	}
	obj, err := s.evaluate(ctx, scriptExpression(frames, script), true)
	if errors.Is(err, errDialogOpened) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var out string
	return out, decode(obj, &out)
}

// DeleteAllCookies clears every cookie in the browser.
func (s *Session) DeleteAllCookies(ctx context.Context) error {
	return s.run(ctx, network.ClearBrowserCookies())
}

// SetWindowSize restores the focused window to its normal state and resizes
// it.
func (s *Session) SetWindowSize(ctx context.Context, width, height int) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		if err := browser.SetWindowBounds(windowID, &browser.Bounds{WindowState: browser.WindowStateNormal}).Do(ctx); err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{
			Width:  int64(width),
			Height: int64(height),
		}).Do(ctx)
	}))
}

// WindowPosition returns the screen position of the focused window.
func (s *Session) WindowPosition(ctx context.Context) (driver.Point, error) {
	var bounds *browser.Bounds
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		_, bounds, err = browser.GetWindowForTarget().Do(ctx)
		return err
	}))
	if err != nil {
		return driver.Point{}, err
	}
	return driver.Point{X: int(bounds.Left), Y: int(bounds.Top)}, nil
}

// Screenshot captures the focused window's viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}
