package schema

import (
	"context"
	"time"
)

// RetryPolicy runs an operation a fixed number of times, each attempt under
// its own timeout, with a pause between attempts. One entry in Timeouts is
// one attempt: the schema lookup uses {15s, 25s}, i.e. exactly one retry
// with a longer deadline, never unbounded retry.
type RetryPolicy struct {
	Timeouts []time.Duration
	Delay    time.Duration
}

// DefaultPolicy is the two-tier schema lookup policy.
var DefaultPolicy = RetryPolicy{
	Timeouts: []time.Duration{15 * time.Second, 25 * time.Second},
	Delay:    time.Second,
}

// Do invokes op once per configured attempt until it succeeds. The last
// error is returned when every attempt fails.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for i, timeout := range p.Timeouts {
		if i > 0 && p.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := op(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}
