package anilist

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter paces API calls with a per-minute budget and a minimum spacing
// between consecutive requests. A 429 response exhausts the budget for the
// server-provided retry window.
type limiter struct {
	budget *rate.Limiter

	mu        sync.Mutex
	last      time.Time
	interval  time.Duration
	blockedTo time.Time
}

func newLimiter(perMinute int, minInterval time.Duration) *limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &limiter{
		budget:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		interval: minInterval,
	}
}

// Wait blocks until the next request is allowed.
func (l *limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	wait := time.Duration(0)
	now := time.Now()
	if until := l.blockedTo.Sub(now); until > wait {
		wait = until
	}
	if l.interval > 0 && !l.last.IsZero() {
		if gap := l.interval - now.Sub(l.last); gap > wait {
			wait = gap
		}
	}
	l.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := l.budget.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	l.last = time.Now()
	l.mu.Unlock()
	return nil
}

// Exhaust blocks further requests for the given window.
func (l *limiter) Exhaust(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = time.Minute
	}
	l.mu.Lock()
	if deadline := time.Now().Add(retryAfter); deadline.After(l.blockedTo) {
		l.blockedTo = deadline
	}
	l.mu.Unlock()
}
