package probe

import (
	"context"
	"time"
)

// RetryChecker wraps a Checker with a fixed number of attempts and a flat
// backoff between them. Scheduled probes do not use this (a probe failure
// is an outcome, not an error); it exists for ad hoc one-shot checks.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last CheckResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Success {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	last.Message = last.Message + " (after retries)"
	return last
}
