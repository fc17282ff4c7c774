// internal/browser/session/windows.go
package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
)

const pageTarget = "page"

// WindowHandles lists the open page targets. Handles keep the order in which
// this session first saw them; windows that have gone away are dropped.
func (s *Session) WindowHandles(ctx context.Context) ([]driver.WindowHandle, error) {
	if s.Closed() {
		return nil, driver.ErrSessionClosed
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	infos, err := chromedp.Targets(runCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s.ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", driver.ErrSessionClosed, err)
		}
		return nil, classifyMessage(err)
	}

	live := make([]driver.WindowHandle, 0, len(infos))
	for _, info := range infos {
		if info.Type == pageTarget {
			live = append(live, driver.WindowHandle(info.TargetID))
		}
	}
	return s.reconcile(live), nil
}

// reconcile merges the live handle set into the session's ordering and
// forgets windows that no longer exist.
func (s *Session) reconcile(live []driver.WindowHandle) []driver.WindowHandle {
	var gone []*tab
	defer func() {
		// chromedp's cancel waits on the target's event loop, which may be
		// blocked on s.mu in a listener.
		for _, t := range gone {
			t.cancel()
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.order[:0:0]
	for _, h := range s.order {
		if slices.Contains(live, h) {
			order = append(order, h)
			continue
		}
		if t, ok := s.tabs[h]; ok {
			gone = append(gone, t)
			delete(s.tabs, h)
		}
		delete(s.dialogs, h)
	}
	for _, h := range live {
		if !slices.Contains(order, h) {
			order = append(order, h)
		}
	}
	s.order = order
	return slices.Clone(order)
}

// CurrentWindowHandle returns the focused window.
func (s *Session) CurrentWindowHandle(ctx context.Context) (driver.WindowHandle, error) {
	h, _, _, err := s.focused()
	return h, err
}

// SwitchToWindow focuses h, attaching to its target the first time, and
// resets the frame context to the window's top document.
func (s *Session) SwitchToWindow(ctx context.Context, h driver.WindowHandle) error {
	if s.Closed() {
		return driver.ErrSessionClosed
	}
	s.mu.Lock()
	t, attached := s.tabs[h]
	s.mu.Unlock()

	if !attached {
		handles, err := s.WindowHandles(ctx)
		if err != nil {
			return err
		}
		if !slices.Contains(handles, h) {
			return fmt.Errorf("%w: %s", driver.ErrNoSuchWindow, h)
		}
		tabCtx, cancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(target.ID(h)))
		if err := Attach(ctx, tabCtx, s.opTimeout); err != nil {
			cancel()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: failed to attach to %s: %v", driver.ErrNoSuchWindow, h, err)
		}
		t = &tab{ctx: tabCtx, cancel: cancel}
		s.listen(h, tabCtx)

		s.mu.Lock()
		s.tabs[h] = t
		s.mu.Unlock()
		s.logger.Debug("Attached to window.", zap.String("window", string(h)))
	}

	if err := s.runOn(ctx, h, t, target.ActivateTarget(target.ID(h))); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("Could not bring window to front.", zap.String("window", string(h)), zap.Error(err))
	}

	s.mu.Lock()
	s.current = h
	s.frames = nil
	s.mu.Unlock()
	return nil
}

// SwitchToFrame descends into the frame with the given id or name inside the
// current document.
func (s *Session) SwitchToFrame(ctx context.Context, frame string) error {
	_, _, frames, err := s.focused()
	if err != nil {
		return err
	}
	path := append(frames, frame)
	obj, err := s.evaluate(ctx, frameExists(path), true)
	if err != nil {
		return err
	}
	var ok bool
	if err := decode(obj, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", driver.ErrNoSuchFrame, frame)
	}

	s.mu.Lock()
	s.frames = path
	s.mu.Unlock()
	return nil
}

// SwitchToDefaultContent returns to the focused window's top document.
func (s *Session) SwitchToDefaultContent(ctx context.Context) error {
	if _, _, _, err := s.focused(); err != nil {
		return err
	}
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
	return nil
}

// Alert returns the dialog open in the focused window.
func (s *Session) Alert(ctx context.Context) (driver.Alert, error) {
	h, _, _, err := s.focused()
	if err != nil {
		return driver.Alert{}, err
	}
	s.mu.Lock()
	ev := s.dialogs[h]
	s.mu.Unlock()
	if ev == nil {
		return driver.Alert{}, driver.ErrNoAlert
	}
	return driver.Alert{Type: string(ev.Type), Message: ev.Message}, nil
}

// AcceptAlert confirms the open dialog.
func (s *Session) AcceptAlert(ctx context.Context) error {
	return s.handleDialog(ctx, true)
}

// DismissAlert cancels the open dialog.
func (s *Session) DismissAlert(ctx context.Context) error {
	return s.handleDialog(ctx, false)
}

func (s *Session) handleDialog(ctx context.Context, accept bool) error {
	h, t, _, err := s.focused()
	if err != nil {
		return err
	}
	if _, err := s.Alert(ctx); err != nil {
		return err
	}
	if err := s.runOn(ctx, h, t, page.HandleJavaScriptDialog(accept)); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.dialogs, h)
	s.mu.Unlock()
	return nil
}
