// Package httputil provides the retry controller used by the stats engine.
//
// # Retry
//
// [Retry] wraps a request attempt with automatic retry for transient
// failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 / rate-limit responses
//
// It uses exponential backoff with jitter to avoid thundering herd:
//
//	err := httputil.Retry(ctx, httputil.Policy{MaxAttempts: 5}, func() error {
//	    return doRequest()
//	})
//
// Only errors wrapped with [RetryableError] (or carrying a rate-limit
// signal) are retried; everything else is treated as permanent and
// returned after the first attempt. When a rate-limit error reports an
// authoritative reset time, the controller sleeps until that time rather
// than following the exponential schedule.
package httputil
