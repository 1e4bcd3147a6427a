package services

import (
	"context"
	"time"
)

const (
	// DefaultRetryAttempts bounds internal retries for transient failures.
	DefaultRetryAttempts = 3
	defaultRetryBase     = time.Second
)

// RetryPolicy controls the bounded exponential backoff applied to retryable
// errors. The zero value is replaced with the defaults (3 attempts, 1s base
// doubling per attempt).
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	// Sleep is overridable for tests; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Retry invokes fn up to policy.Attempts times, backing off exponentially
// between attempts. Only errors classified retryable by IsRetryable are
// retried; anything else returns immediately. The last error is returned
// when attempts are exhausted.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	base := policy.Base
	if base <= 0 {
		base = defaultRetryBase
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if sleepErr := sleep(ctx, base<<(attempt-1)); sleepErr != nil {
				return sleepErr
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
