// internal/browser/session/elements.go
package session

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
)

// FindElement queries the current document for the first match of loc.
func (s *Session) FindElement(ctx context.Context, loc locator.Locator) (driver.Element, error) {
	_, _, frames, err := s.focused()
	if err != nil {
		return driver.Element{}, err
	}
	expr, err := finderExpression(frames, loc)
	if err != nil {
		return driver.Element{}, err
	}
	obj, err := s.evaluate(ctx, expr, false)
	if err != nil {
		return driver.Element{}, err
	}
	if obj == nil || obj.ObjectID == "" {
		return driver.Element{}, fmt.Errorf("%w: %s", driver.ErrNoSuchElement, loc)
	}
	return driver.Element{ID: string(obj.ObjectID), Locator: loc}, nil
}

// Text returns the element's rendered text.
func (s *Session) Text(ctx context.Context, el driver.Element) (string, error) {
	return s.callString(ctx, el, textFunction)
}

// IsVisible reports whether the element is rendered with a non-empty box.
func (s *Session) IsVisible(ctx context.Context, el driver.Element) (bool, error) {
	return s.callBool(ctx, el, visibleFunction)
}

// IsEnabled reports whether the element is not :disabled.
func (s *Session) IsEnabled(ctx context.Context, el driver.Element) (bool, error) {
	return s.callBool(ctx, el, enabledFunction)
}

// IsSelected reports whether a checkbox, radio or option is selected.
func (s *Session) IsSelected(ctx context.Context, el driver.Element) (bool, error) {
	return s.callBool(ctx, el, selectedFunction)
}

// Clear empties an input, textarea or contenteditable element.
func (s *Session) Clear(ctx context.Context, el driver.Element) error {
	_, err := s.callOn(ctx, el, clearFunction)
	return err
}

// SendKeys focuses the element and types text as key events.
func (s *Session) SendKeys(ctx context.Context, el driver.Element, text string) error {
	if _, err := s.callOn(ctx, el, focusFunction); err != nil {
		return err
	}
	return s.RunActions(ctx, chromedp.KeyEvent(text))
}

// SelectByVisibleText picks the option of a <select> whose text is text.
func (s *Session) SelectByVisibleText(ctx context.Context, el driver.Element, text string) error {
	found, err := s.callBool(ctx, el, selectFunction(text))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no option with visible text %q in %s", driver.ErrNoSuchElement, text, el.Locator)
	}
	return nil
}

// center returns the element's centre in viewport coordinates.
func (s *Session) center(ctx context.Context, el driver.Element) (point, error) {
	obj, err := s.callOn(ctx, el, centerFunction)
	if err != nil {
		return point{}, err
	}
	var p point
	return p, decode(obj, &p)
}

// Click clicks the centre of the element.
func (s *Session) Click(ctx context.Context, el driver.Element) error {
	p, err := s.center(ctx, el)
	if err != nil {
		return err
	}
	return s.pointer().click(ctx, p, left, 1)
}

// DoubleClick double-clicks the centre of the element.
func (s *Session) DoubleClick(ctx context.Context, el driver.Element) error {
	p, err := s.center(ctx, el)
	if err != nil {
		return err
	}
	ptr := s.pointer()
	if err := ptr.click(ctx, p, left, 1); err != nil {
		return err
	}
	return ptr.click(ctx, p, left, 2)
}

// RightClick opens the context menu on the element.
func (s *Session) RightClick(ctx context.Context, el driver.Element) error {
	p, err := s.center(ctx, el)
	if err != nil {
		return err
	}
	return s.pointer().click(ctx, p, right, 1)
}

// ClickOffset clicks at (dx, dy) pixels from the element's centre.
func (s *Session) ClickOffset(ctx context.Context, el driver.Element, dx, dy int) error {
	p, err := s.center(ctx, el)
	if err != nil {
		return err
	}
	return s.pointer().click(ctx, p.offset(dx, dy), left, 1)
}

// Hover moves the pointer over the element's centre.
func (s *Session) Hover(ctx context.Context, el driver.Element) error {
	p, err := s.center(ctx, el)
	if err != nil {
		return err
	}
	return s.pointer().move(ctx, p, none)
}

// MouseDown presses the left button over the element.
func (s *Session) MouseDown(ctx context.Context, el driver.Element) error {
	p, err := s.center(ctx, el)
	if err != nil {
		return err
	}
	ptr := s.pointer()
	if err := ptr.move(ctx, p, none); err != nil {
		return err
	}
	return ptr.press(ctx, p, left, 1)
}

// MouseUp releases the left button over the element.
func (s *Session) MouseUp(ctx context.Context, el driver.Element) error {
	p, err := s.center(ctx, el)
	if err != nil {
		return err
	}
	ptr := s.pointer()
	if err := ptr.move(ctx, p, left); err != nil {
		return err
	}
	return ptr.release(ctx, p, left, 1)
}

// DragAndDrop drags src onto the centre of dst.
func (s *Session) DragAndDrop(ctx context.Context, src, dst driver.Element) error {
	from, err := s.center(ctx, src)
	if err != nil {
		return err
	}
	to, err := s.center(ctx, dst)
	if err != nil {
		return err
	}
	return s.pointer().drag(ctx, from, to)
}

// DragAndDropBy drags the element by (dx, dy) pixels.
func (s *Session) DragAndDropBy(ctx context.Context, el driver.Element, dx, dy int) error {
	from, err := s.center(ctx, el)
	if err != nil {
		return err
	}
	return s.pointer().drag(ctx, from, from.offset(dx, dy))
}
