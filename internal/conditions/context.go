// internal/conditions/context.go
package conditions

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/wait"
)

// AlertPresent is satisfied by the open modal dialog.
func AlertPresent() wait.Condition[driver.Alert] {
	return wait.New(
		wait.Static("alert to be present"),
		func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (driver.Alert, bool, error) {
			a, err := drv.Alert(ctx)
			if err != nil {
				return driver.Alert{}, false, err
			}
			return a, true, nil
		})
}

// FrameAvailable switches into the frame with the given id or name and yields
// the driver, now scoped to that frame.
func FrameAvailable(frame string) wait.Condition[driver.Driver] {
	return wait.New(
		wait.Static(fmt.Sprintf("frame to be available: %s", frame)),
		func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (driver.Driver, bool, error) {
			if err := drv.SwitchToFrame(ctx, frame); err != nil {
				return nil, false, err
			}
			return drv, true, nil
		})
}
