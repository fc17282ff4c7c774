// internal/wait/errors.go
package wait

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches any *TimeoutError via errors.Is.
var ErrTimeout = errors.New("condition timed out")

// TimeoutError reports a condition that was never satisfied within its budget.
// The last transient error is kept for the message but not unwrapped: stale
// references are absorbed by the engine and must not leak as their own kind.
type TimeoutError struct {
	Description string
	Timeout     time.Duration
	Interval    time.Duration
	Attempts    int
	LastErr     error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("expected condition failed: waiting for %s (tried for %s with %s interval, %d attempts)",
		e.Description, e.Timeout, e.Interval, e.Attempts)
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// FatalError wraps a non-retryable driver error raised while evaluating a
// condition.
type FatalError struct {
	Description string
	Err         error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("waiting for %s: %v", e.Description, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
