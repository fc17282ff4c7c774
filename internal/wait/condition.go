// internal/wait/condition.go
package wait

import (
	"context"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
)

// Observation is the diagnostic context threaded through a single wait. A
// condition records what it last saw so the timeout message can report it;
// the condition value itself stays stateless and reusable.
type Observation struct {
	Attempts int
	LastText string
	HasText  bool
	LastErr  error
}

// RecordText stores the most recently observed element text.
func (o *Observation) RecordText(text string) {
	o.LastText = text
	o.HasText = true
}

// Condition is a predicate evaluated against live driver state.
//
// Evaluate returns (value, true, nil) when satisfied and (zero, false, nil)
// when the caller should poll again. A transient driver error (see
// driver.IsTransient) is also retried; any other error ends the wait.
type Condition[T any] interface {
	Evaluate(ctx context.Context, drv driver.Driver, obs *Observation) (T, bool, error)
	// Describe renders what is being waited for, using the last observation.
	Describe(obs Observation) string
}

type funcCondition[T any] struct {
	eval     func(ctx context.Context, drv driver.Driver, obs *Observation) (T, bool, error)
	describe func(obs Observation) string
}

func (c funcCondition[T]) Evaluate(ctx context.Context, drv driver.Driver, obs *Observation) (T, bool, error) {
	return c.eval(ctx, drv, obs)
}

func (c funcCondition[T]) Describe(obs Observation) string {
	return c.describe(obs)
}

// New builds a Condition from an evaluation function and a describer.
func New[T any](describe func(obs Observation) string, eval func(ctx context.Context, drv driver.Driver, obs *Observation) (T, bool, error)) Condition[T] {
	return funcCondition[T]{eval: eval, describe: describe}
}

// Static returns a describer that ignores the observation.
func Static(description string) func(Observation) string {
	return func(Observation) string { return description }
}
