// internal/wait/wait.go
package wait

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webdriver-keywords/internal/driver"
)

// DefaultPollInterval is used when Config.Interval is not positive.
const DefaultPollInterval = 500 * time.Millisecond

// Config bounds a single wait.
type Config struct {
	// Timeout is the total budget. Zero means a single evaluation.
	Timeout  time.Duration
	Interval time.Duration
	Logger   *zap.Logger
}

func (c Config) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultPollInterval
	}
	return c.Interval
}

// Until polls cond against drv until it is satisfied, the timeout elapses, a
// non-transient driver error occurs, or ctx is done.
//
// The first evaluation happens immediately. Transient errors (stale
// references, elements or windows not yet present) count as "not yet" and are
// only visible as the LastErr of the eventual *TimeoutError. Any other driver
// error returns a *FatalError at once. Sleeps are clipped to the remaining
// budget, and no evaluation starts after the budget is spent.
func Until[T any](ctx context.Context, drv driver.Driver, cond Condition[T], cfg Config) (T, error) {
	var zero T
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.interval()

	var obs Observation
	start := time.Now()
	timeout := func() error {
		return &TimeoutError{
			Description: cond.Describe(obs),
			Timeout:     cfg.Timeout,
			Interval:    interval,
			Attempts:    obs.Attempts,
			LastErr:     obs.LastErr,
		}
	}

	for {
		obs.Attempts++
		value, ok, err := cond.Evaluate(ctx, drv, &obs)
		switch {
		case err == nil && ok:
			logger.Debug("Condition satisfied.",
				zap.String("condition", cond.Describe(obs)),
				zap.Int("attempts", obs.Attempts),
				zap.Duration("elapsed", time.Since(start)))
			return value, nil
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}
			if !driver.IsTransient(err) {
				return zero, &FatalError{Description: cond.Describe(obs), Err: err}
			}
			obs.LastErr = err
			logger.Debug("Transient error while polling, retrying.",
				zap.String("condition", cond.Describe(obs)),
				zap.Int("attempt", obs.Attempts),
				zap.Error(err))
		}

		remaining := cfg.Timeout - time.Since(start)
		if remaining <= 0 {
			return zero, timeout()
		}
		if err := sleep(ctx, min(interval, remaining)); err != nil {
			return zero, err
		}
		if time.Since(start) >= cfg.Timeout {
			return zero, timeout()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
