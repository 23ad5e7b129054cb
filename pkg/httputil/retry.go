package httputil

import (
	"context"
	"errors"
	"time"
)

// Defaults for manifest and jar downloads when the config leaves them unset.
const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second
)

// RetryableError marks a download failure worth another attempt: 5xx and 429
// responses, and transport errors.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn until it succeeds, returns a non-retryable error, or
// attempts runs out. The wait starts at delay and doubles.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// IsRetryable reports whether err is wrapped in a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
