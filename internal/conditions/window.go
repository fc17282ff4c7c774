// internal/conditions/window.go
package conditions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/wait"
)

// Probe scripts for window search.
const (
	TitleProbe = "return window.document.title;"
	URLProbe   = "return window.document.URL;"
)

// WindowMode selects how Window picks a handle.
type WindowMode int

const (
	// MatchByProbeResult runs the probe in every window and picks the first
	// whose result contains the target.
	MatchByProbeResult WindowMode = iota
	// MatchNext picks the first handle, in enumeration order, that is not the
	// focused one.
	MatchNext
)

// WindowSearch describes one window search.
type WindowSearch struct {
	ProbeScript string
	Target      string
	Mode        WindowMode
}

func (s WindowSearch) String() string {
	if s.Mode == MatchNext {
		return "another window to be present"
	}
	return fmt.Sprintf("window containing ('%s') to be present found by %s", s.Target, s.ProbeScript)
}

// Window searches the open windows and leaves focus on the match. Handles are
// enumerated fresh on every attempt. When nothing matches, focus is restored
// to the window that was focused when the attempt began.
func Window(search WindowSearch) wait.Condition[driver.WindowHandle] {
	return wait.New(
		wait.Static(search.String()),
		func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (driver.WindowHandle, bool, error) {
			origin, err := drv.CurrentWindowHandle(ctx)
			if err != nil {
				return "", false, err
			}
			handles, err := drv.WindowHandles(ctx)
			if err != nil {
				return "", false, err
			}

			if search.Mode == MatchNext {
				for _, h := range handles {
					if h == origin {
						continue
					}
					if err := drv.SwitchToWindow(ctx, h); err != nil {
						if errors.Is(err, driver.ErrSessionClosed) {
							return "", false, err
						}
						obs.LastErr = err
						continue
					}
					return h, true, nil
				}
				return "", false, nil
			}

			for _, h := range handles {
				match, err := probe(ctx, drv, h, search)
				if err != nil {
					if errors.Is(err, driver.ErrSessionClosed) || ctx.Err() != nil {
						return "", false, err
					}
					obs.LastErr = err
					continue
				}
				if match {
					return h, true, nil
				}
			}

			if err := drv.SwitchToWindow(ctx, origin); err != nil {
				return "", false, fmt.Errorf("restoring focus to window %s: %w", origin, err)
			}
			return "", false, nil
		})
}

func probe(ctx context.Context, drv driver.Driver, h driver.WindowHandle, search WindowSearch) (bool, error) {
	if err := drv.SwitchToWindow(ctx, h); err != nil {
		return false, err
	}
	out, err := drv.ExecuteScript(ctx, search.ProbeScript)
	if err != nil {
		return false, fmt.Errorf("probing window %s: %w", h, err)
	}
	return strings.Contains(out, search.Target), nil
}
