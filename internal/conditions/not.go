// internal/conditions/not.go
package conditions

import (
	"context"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
	"github.com/xkilldash9x/webdriver-keywords/internal/wait"
)

// Not inverts c. It is satisfied only when c cleanly reports "not satisfied";
// errors from c pass through unchanged, so a transient error is still retried
// rather than read as negation.
func Not[T any](c wait.Condition[T]) wait.Condition[bool] {
	return wait.New(
		func(obs wait.Observation) string {
			return "condition to not be valid: " + c.Describe(obs)
		},
		func(ctx context.Context, drv driver.Driver, obs *wait.Observation) (bool, bool, error) {
			_, ok, err := c.Evaluate(ctx, drv, obs)
			if err != nil {
				return false, false, err
			}
			return !ok, !ok, nil
		})
}
