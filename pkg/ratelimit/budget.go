// Package ratelimit tracks the request budget granted by the forge API.
//
// The forge reports its rate limit through response headers (remaining
// requests, total limit, reset time). A [Tracker] holds the latest reported
// values and gates outgoing requests: every request reserves one unit
// before it is sent, and the budget is overwritten with the authoritative
// header values after every response.
//
// One Tracker exists per authenticated credential and is shared by all
// concurrent fetchers, since the remote limit is shared across everything
// sent under that credential.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
	"github.com/forgestats/forgestats/pkg/observability"
)

// Budget is the rate-limit state reported by the forge.
type Budget struct {
	Remaining int       // Requests left in the current window
	Limit     int       // Total requests per window
	ResetAt   time.Time // When the window resets
}

// Config controls tracker behavior. The zero value is usable.
type Config struct {
	// SafetyMargin is the number of requests held in reserve. Reservations
	// fail once remaining drops to the margin. Defaults to 1.
	SafetyMargin int

	// InitialLimit seeds the budget before the first response arrives.
	// Defaults to 5000, the authenticated per-hour quota.
	InitialLimit int

	// ProactiveRPS enables a client-side token bucket in front of the
	// header-derived budget, smoothing request bursts. Zero disables it.
	ProactiveRPS float64

	// Burst is the token bucket burst size. Defaults to 1 when ProactiveRPS
	// is set.
	Burst int
}

// DefaultInitialLimit is the authenticated request quota assumed until the
// first response reports real numbers.
const DefaultInitialLimit = 5000

// Tracker maintains the shared request budget. All methods are safe for
// concurrent use; reserve-then-decrement runs under a single lock so that
// two callers can never both claim the last available unit.
type Tracker struct {
	mu       sync.Mutex
	budget   Budget
	margin   int
	throttle *rate.Limiter
	now      func() time.Time
}

// NewTracker creates a tracker seeded with an optimistic full budget.
func NewTracker(cfg Config) *Tracker {
	if cfg.SafetyMargin <= 0 {
		cfg.SafetyMargin = 1
	}
	if cfg.InitialLimit <= 0 {
		cfg.InitialLimit = DefaultInitialLimit
	}

	t := &Tracker{
		budget: Budget{Remaining: cfg.InitialLimit, Limit: cfg.InitialLimit},
		margin: cfg.SafetyMargin,
		now:    time.Now,
	}
	if cfg.ProactiveRPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		t.throttle = rate.NewLimiter(rate.Limit(cfg.ProactiveRPS), burst)
	}
	return t
}

// Reserve claims one request unit without blocking. It fails with a
// *ferrors.RateLimitedError when the remaining budget is at or below the
// safety margin and the reset time is still in the future. Once the reset
// time has passed, the budget is assumed restored to the full limit.
func (t *Tracker) Reserve() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.budget.Remaining <= t.margin {
		if t.now().Before(t.budget.ResetAt) || t.budget.Limit <= t.margin {
			return &ferrors.RateLimitedError{
				ResetAt:   t.budget.ResetAt,
				Remaining: t.budget.Remaining,
				Limit:     t.budget.Limit,
			}
		}
		// Window rolled over without a fresh header update.
		t.budget.Remaining = t.budget.Limit
	}

	t.budget.Remaining--
	return nil
}

// Acquire claims one request unit, waiting on the proactive throttle if one
// is configured. Budget exhaustion is still reported immediately rather
// than waited out; use [Tracker.Wait] to block until the window resets.
func (t *Tracker) Acquire(ctx context.Context) error {
	if t.throttle != nil {
		start := t.now()
		if err := t.throttle.Wait(ctx); err != nil {
			return err
		}
		if waited := t.now().Sub(start); waited > 0 {
			observability.Fetch().OnRateLimitWait(ctx, waited)
		}
	}
	return t.Reserve()
}

// Wait claims one request unit, sleeping until the reset time whenever the
// budget is exhausted. It returns ctx.Err() if cancelled while waiting.
func (t *Tracker) Wait(ctx context.Context) error {
	for {
		err := t.Acquire(ctx)
		if err == nil {
			return nil
		}
		if !ferrors.IsRateLimited(err) {
			return err
		}

		t.mu.Lock()
		resetAt := t.budget.ResetAt
		t.mu.Unlock()

		wait := resetAt.Sub(t.now())
		if wait <= 0 {
			continue
		}
		observability.Fetch().OnRateLimitWait(ctx, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Update overwrites the budget with values derived from response headers.
// Last write wins: the forge is the source of truth, so stale local
// decrements are discarded. A response reporting only some of the rate
// headers keeps the previous values for the missing fields, so a partial
// update can never zero the limit or the reset time out from under the
// optimistic restore in Reserve.
func (t *Tracker) Update(b Budget) {
	if b.Limit <= 0 && b.Remaining <= 0 && b.ResetAt.IsZero() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if b.Limit <= 0 {
		b.Limit = t.budget.Limit
	}
	if b.ResetAt.IsZero() {
		b.ResetAt = t.budget.ResetAt
	}
	t.budget = b
}

// Budget returns a copy of the current budget state.
func (t *Tracker) Budget() Budget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.budget
}
