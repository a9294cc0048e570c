package httputil

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error as a RetryableError. A nil error stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Policy controls the retry schedule.
// The zero value is usable: unset fields fall back to the defaults below.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Defaults to 5.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Each subsequent retry
	// doubles it. Defaults to 500ms.
	BaseDelay time.Duration

	// MaxDelay caps the exponential schedule. Defaults to 30s.
	MaxDelay time.Duration

	// OnRetry, if set, is called before each sleep with the attempt number
	// (1-based), the delay about to be slept, and the error that caused it.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Default schedule values.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 30 * time.Second
)

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// backoff returns the delay for the given 0-based attempt: BaseDelay doubled
// per attempt, capped at MaxDelay, plus random jitter in [0, delay).
func (p Policy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for range attempt {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	return delay + time.Duration(rand.Int64N(int64(delay)))
}

// Retry executes fn up to p.MaxAttempts times with exponential backoff.
// It retries errors wrapped with [RetryableError] and rate-limit errors;
// any other error is returned immediately without another attempt.
//
// Rate-limit errors are special-cased: when the error carries an
// authoritative reset time, the wait lasts until that time instead of
// following the exponential schedule.
//
// Exhausting all attempts returns a [ferrors.RetriesExhaustedError]
// wrapping the last error. Cancellation is observed between attempts and
// returns ctx.Err().
func Retry(ctx context.Context, p Policy, fn func() error) error {
	p = p.withDefaults()
	var lastErr error

	for attempt := range p.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) && !ferrors.IsRateLimited(err) {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.backoff(attempt)
		var rle *ferrors.RateLimitedError
		if errors.As(err, &rle) && !rle.ResetAt.IsZero() {
			if until := time.Until(rle.ResetAt); until > 0 {
				delay = until
			}
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &ferrors.RetriesExhaustedError{Attempts: p.MaxAttempts, Last: lastErr}
}

// RetryWithBackoff is a convenience wrapper around [Retry] with the default
// policy: 5 attempts starting at 500ms, doubling up to 30s.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, Policy{}, fn)
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
