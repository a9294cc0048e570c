package forge

import (
	"errors"
	"net/http"
	"time"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
	"github.com/forgestats/forgestats/pkg/httputil"
)

// ErrNotModified is returned for a 304 response to a conditional request.
// It signals that the caller's previous result is still fresh; it is not a
// failure.
var ErrNotModified = errors.New("not modified")

// CheckStatus maps a response's status code onto the engine's error
// taxonomy. Transient conditions (5xx, timeouts, rate limiting) come back
// wrapped for the retry controller; permanent conditions (bad request,
// missing resource, bad credentials) fail immediately.
func CheckStatus(resp *Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil

	case code == http.StatusNotModified:
		return ErrNotModified

	case code == http.StatusNotFound || code == http.StatusGone:
		return ferrors.New(ferrors.ErrCodeNotFound, "resource not found (status %d)", code)

	case code == http.StatusUnauthorized:
		return ferrors.New(ferrors.ErrCodeUnauthorized, "bad credentials")

	case code == http.StatusForbidden || code == http.StatusTooManyRequests:
		if err := rateLimitError(resp); err != nil {
			return err
		}
		return ferrors.New(ferrors.ErrCodeForbidden, "access denied (status %d)", code)

	case code == http.StatusRequestTimeout:
		return httputil.Retryable(ferrors.New(ferrors.ErrCodeTimeout, "request timeout (status %d)", code))

	case code >= 500:
		return httputil.Retryable(ferrors.New(ferrors.ErrCodeNetwork, "server error (status %d)", code))

	default:
		return ferrors.New(ferrors.ErrCodeNetwork, "unexpected status %d", code)
	}
}

// rateLimitError builds a RateLimitedError from a 403/429 response, or nil
// when the response is a plain permission failure rather than a rate limit.
func rateLimitError(resp *Response) error {
	budget, ok := RateBudget(resp.Header)

	limited := resp.StatusCode == http.StatusTooManyRequests ||
		(ok && budget.Remaining == 0)
	if !limited {
		return nil
	}

	resetAt := budget.ResetAt
	if wait := RetryAfter(resp.Header); wait > 0 {
		resetAt = time.Now().Add(wait)
	}

	return &ferrors.RateLimitedError{
		ResetAt:   resetAt,
		Remaining: budget.Remaining,
		Limit:     budget.Limit,
	}
}
