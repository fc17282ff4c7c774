// internal/conditions/element.go
package conditions

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/locator"
	"github.com/xkilldash9x/webdriver-keywords/internal/wait"
)

// find resolves loc against the live document. A clean "not found" from the
// driver is reported as found == false with no error, which is what lets Not
// treat absence as confirmed.
func find(ctx context.Context, drv driver.Driver, loc locator.Locator, obs *wait.Observation) (driver.Element, bool, error) {
	el, err := drv.FindElement(ctx, loc)
	if err != nil {
		if errors.Is(err, driver.ErrNoSuchElement) {
			obs.LastErr = err
			return driver.Element{}, false, nil
		}
		return driver.Element{}, false, err
	}
	return el, true, nil
}

// ElementPresent is satisfied by the first element matching loc, whether or
// not it is rendered.
func ElementPresent(loc locator.Locator) wait.Condition[driver.Element] {
	return wait.New(
		wait.Static(fmt.Sprintf("presence of element located by: %s", loc)),
		func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (driver.Element, bool, error) {
			return find(ctx, drv, loc, obs)
		})
}

// ElementVisible is satisfied by the element matching loc once it has a
// non-zero rendered size and no hidden styling.
func ElementVisible(loc locator.Locator) wait.Condition[driver.Element] {
	return wait.New(
		wait.Static(fmt.Sprintf("visibility of element located by %s", loc)),
		func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (driver.Element, bool, error) {
			el, ok, err := find(ctx, drv, loc, obs)
			if !ok || err != nil {
				return driver.Element{}, false, err
			}
			visible, err := drv.IsVisible(ctx, el)
			if err != nil || !visible {
				return driver.Element{}, false, err
			}
			return el, true, nil
		})
}

// ElementClickable is satisfied by a visible element that is also enabled.
func ElementClickable(loc locator.Locator) wait.Condition[driver.Element] {
	visible := ElementVisible(loc)
	return wait.New(
		wait.Static(fmt.Sprintf("element to be clickable: %s", loc)),
		func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (driver.Element, bool, error) {
			el, ok, err := visible.Evaluate(ctx, drv, obs)
			if !ok || err != nil {
				return driver.Element{}, false, err
			}
			enabled, err := drv.IsEnabled(ctx, el)
			if err != nil || !enabled {
				return driver.Element{}, false, err
			}
			return el, true, nil
		})
}

// InvisibilityOf is satisfied when the element matching loc is missing, has
// gone stale, or is not rendered. Absence and invisibility are equivalent.
func InvisibilityOf(loc locator.Locator) wait.Condition[bool] {
	return wait.New(
		wait.Static(fmt.Sprintf("element to no longer be visible: %s", loc)),
		func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (bool, bool, error) {
			el, ok, err := find(ctx, drv, loc, obs)
			if err != nil {
				return false, false, err
			}
			if !ok {
				return true, true, nil
			}
			visible, err := drv.IsVisible(ctx, el)
			if err != nil {
				if errors.Is(err, driver.ErrStaleElement) {
					return true, true, nil
				}
				return false, false, err
			}
			return !visible, !visible, nil
		})
}
