package retry

import (
	"context"
	"time"
)

// Policy is an explicit retry policy injected into components that make
// external calls. Retryable decides whether a failed attempt may be retried;
// permanent errors (bad input, auth, quota) should return false.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	Retryable   func(error) bool
}

// None performs a single attempt with no retries.
var None = Policy{MaxAttempts: 1}

// OneTransientRetry retries exactly once when retryable reports the error as
// transient.
func OneTransientRetry(retryable func(error) bool) Policy {
	return Policy{MaxAttempts: 2, Backoff: 500 * time.Millisecond, Retryable: retryable}
}

// Do runs op until it succeeds, attempts run out, or the error is not
// retryable. The last error is returned unwrapped so callers keep their
// classification.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if p.Retryable == nil || !p.Retryable(err) {
				return err
			}
			if p.Backoff > 0 {
				select {
				case <-time.After(p.Backoff):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err = op(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
