package retry

import (
	"context"
	"time"
)

// Policy describes a bounded, fixed-delay retry.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable reports whether err should trigger another attempt.
	// A nil Retryable retries every error.
	Retryable func(err error) bool
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
	// OnRetry is called before sleeping, with the attempt that just failed.
	OnRetry func(attempt int, err error)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the policy runs
// out of attempts. The last error is returned unchanged.
//
// The delay between attempts is not interrupted by ctx; ctx is only passed to fn.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if p.Delay > 0 {
			sleep(p.Delay)
		}
	}
	return err
}
