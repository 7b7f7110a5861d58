package grader

import (
	"context"
	"time"
)

// Policy retries a call on transient failures with linearly increasing
// backoff: attempt n sleeps BaseDelay × n before the next try. Anything
// the Retryable predicate rejects fails immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
	// Sleep is swappable for tests; nil means a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the grading service's documented transient
// failures: up to 5 attempts, 5s base delay, retrying only rate-limit and
// overloaded responses.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   5 * time.Second,
		Retryable:   IsTransient,
	}
}

// Do runs fn until it succeeds, fails permanently, or attempts run out.
// The last error is returned when retries are exhausted.
func (p Policy) Do(ctx context.Context, fn func() (string, error)) (string, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = waitCtx
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.BaseDelay*time.Duration(attempt)); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func waitCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
