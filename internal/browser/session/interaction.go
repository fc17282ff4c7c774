// internal/browser/session/interaction.go
package session

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
)

// dragSteps is the number of intermediate moves in a drag, enough for pages
// that track pointermove to register the gesture.
const dragSteps = 8

// point is a position in top-level viewport coordinates.
type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p point) offset(dx, dy int) point {
	return point{X: p.X + float64(dx), Y: p.Y + float64(dy)}
}

// button pairs a CDP mouse button with its bit in the buttons mask.
type button struct {
	name input.MouseButton
	mask int64
}

var (
	none  = button{name: input.None}
	left  = button{name: input.Left, mask: 1}
	right = button{name: input.Right, mask: 2}
)

// pointer dispatches raw mouse events through an ActionExecutor.
type pointer struct {
	exec ActionExecutor
}

func (s *Session) pointer() pointer { return pointer{exec: s} }

func (p pointer) dispatch(ctx context.Context, kind input.MouseType, at point, b button, buttons, clicks int64) error {
	ev := input.DispatchMouseEvent(kind, at.X, at.Y).
		WithButton(b.name).
		WithButtons(buttons).
		WithClickCount(clicks)
	if err := p.exec.RunActions(ctx, ev); err != nil {
		return fmt.Errorf("failed to dispatch %s at (%.0f, %.0f): %w", kind, at.X, at.Y, err)
	}
	return nil
}

// move moves the pointer to at with held buttons pressed.
func (p pointer) move(ctx context.Context, at point, held button) error {
	return p.dispatch(ctx, input.MouseMoved, at, none, held.mask, 0)
}

func (p pointer) press(ctx context.Context, at point, b button, clicks int64) error {
	return p.dispatch(ctx, input.MousePressed, at, b, b.mask, clicks)
}

func (p pointer) release(ctx context.Context, at point, b button, clicks int64) error {
	return p.dispatch(ctx, input.MouseReleased, at, b, 0, clicks)
}

// click moves to at, then presses and releases b. clicks is the click count
// the page sees, so a second click with clicks=2 produces a dblclick.
func (p pointer) click(ctx context.Context, at point, b button, clicks int64) error {
	if err := p.move(ctx, at, none); err != nil {
		return err
	}
	if err := p.press(ctx, at, b, clicks); err != nil {
		return err
	}
	return p.release(ctx, at, b, clicks)
}

// drag presses the left button at from, moves to to in steps and releases.
func (p pointer) drag(ctx context.Context, from, to point) error {
	if err := p.move(ctx, from, none); err != nil {
		return err
	}
	if err := p.press(ctx, from, left, 1); err != nil {
		return err
	}
	for i := 1; i <= dragSteps; i++ {
		f := float64(i) / dragSteps
		step := point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f}
		if err := p.move(ctx, step, left); err != nil {
			return err
		}
	}
	return p.release(ctx, to, left, 1)
}
