package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
	"github.com/forgestats/forgestats/pkg/forge"
	"github.com/forgestats/forgestats/pkg/httputil"
	"github.com/forgestats/forgestats/pkg/ratelimit"
)

// DefaultConcurrency bounds how many categories are fetched in parallel.
// The forge budget is shared, so more workers only burn it faster.
const DefaultConcurrency = 4

// Config configures a Client. Zero values fall back to defaults, so
// stats.New(stats.Config{}) yields a working anonymous client.
type Config struct {
	// Transport sends individual requests. Nil uses an unauthenticated
	// HTTP transport against the public forge.
	Transport forge.Transport

	// Budget is the shared rate tracker. Nil creates a fresh one; pass an
	// explicit tracker when several clients share one credential.
	Budget *ratelimit.Tracker

	// BaseURL overrides the forge endpoint, mainly for tests.
	BaseURL string

	// Concurrency bounds parallel category fetches. Defaults to 4.
	Concurrency int

	// Retry is the per-request retry schedule.
	Retry httputil.Policy

	// PageCeiling stops list categories after this many pages and marks
	// the result truncated. Zero walks the full collection.
	PageCeiling int

	Logger *log.Logger
}

// SnapshotOptions controls a single Snapshot call.
type SnapshotOptions struct {
	// Categories selects which statistics to fetch. Empty means all.
	Categories []Category

	// Previous enables conditional re-fetch: unchanged categories are
	// answered from the previous snapshot at one request unit each. A
	// snapshot for a different repository is ignored.
	Previous *RepositorySnapshot
}

// Client orchestrates snapshots: it fans category fetches out over a
// bounded worker pool and assembles the results and failures into one
// RepositorySnapshot.
type Client struct {
	fetcher     *Fetcher
	budget      *ratelimit.Tracker
	concurrency int
	logger      *log.Logger
}

// New creates a snapshot client.
func New(cfg Config) *Client {
	if cfg.Transport == nil {
		cfg.Transport = forge.NewHTTPTransport("")
	}
	if cfg.Budget == nil {
		cfg.Budget = ratelimit.NewTracker(ratelimit.Config{})
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Client{
		fetcher: NewFetcher(cfg.Transport, cfg.Budget, FetchOptions{
			BaseURL:     cfg.BaseURL,
			Retry:       cfg.Retry,
			PageCeiling: cfg.PageCeiling,
			Logger:      cfg.Logger,
		}),
		budget:      cfg.Budget,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Budget returns the current shared rate-budget state.
func (c *Client) Budget() ratelimit.Budget {
	return c.budget.Budget()
}

// Fetch retrieves a single category without snapshot bookkeeping.
func (c *Client) Fetch(ctx context.Context, ref RepositoryRef, cat Category) (StatResult, error) {
	return c.fetcher.Fetch(ctx, ref, cat, nil)
}

// Snapshot fetches the requested categories concurrently and returns a
// point-in-time snapshot. Per-category failures never fail the snapshot:
// each failed category lands in the failure set with a classified reason,
// and the snapshot status reflects the partition. An error is returned
// only for invalid input.
//
// Every requested category appears in exactly one of Results or Failures.
func (c *Client) Snapshot(ctx context.Context, ref RepositoryRef, opts SnapshotOptions) (*RepositorySnapshot, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	cats, err := dedupeCategories(opts.Categories)
	if err != nil {
		return nil, err
	}

	prev := opts.Previous
	if prev != nil && prev.Repo != ref {
		c.logger.Warn("previous snapshot is for a different repository, ignoring",
			"want", ref, "got", prev.Repo)
		prev = nil
	}

	snap := &RepositorySnapshot{
		ID:      uuid.NewString(),
		Repo:    ref,
		TakenAt: time.Now().UTC(),
		Results: make(map[Category]StatResult, len(cats)),
		Status:  StatusComplete,
	}

	c.logger.Info("taking snapshot", "repo", ref, "categories", len(cats), "id", snap.ID)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(min(c.concurrency, len(cats)))

	for _, cat := range cats {
		g.Go(func() error {
			var prevRes *StatResult
			if prev != nil {
				if r, ok := prev.Results[cat]; ok {
					prevRes = &r
				}
			}

			res, err := c.fetcher.Fetch(ctx, ref, cat, prevRes)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				reason := classifyFailure(err)
				c.logger.Warn("category failed", "repo", ref, "category", cat,
					"reason", reason, "err", err)
				if snap.Failures == nil {
					snap.Failures = make(map[Category]FetchFailure)
				}
				snap.Failures[cat] = FetchFailure{
					Category: cat,
					Reason:   reason,
					Message:  ferrors.UserMessage(err),
				}
				return nil
			}
			c.logger.Debug("category fetched", "repo", ref, "category", cat, "count", res.Count)
			snap.Results[cat] = res
			return nil
		})
	}
	g.Wait()

	if len(snap.Failures) > 0 {
		snap.Status = StatusPartialFailure
	}
	c.logger.Info("snapshot done", "repo", ref, "status", snap.Status,
		"results", len(snap.Results), "failures", len(snap.Failures))
	return snap, nil
}

func dedupeCategories(cats []Category) ([]Category, error) {
	if len(cats) == 0 {
		return AllCategories(), nil
	}
	seen := make(map[Category]bool, len(cats))
	var out []Category
	for _, cat := range cats {
		if _, ok := categorySpecs[cat]; !ok {
			return nil, ferrors.New(ferrors.ErrCodeInvalidCategory, "unknown category %q", cat)
		}
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out, nil
}

// classifyFailure maps a fetch error onto a failure reason. Order matters:
// cancellation wins over everything, and retry exhaustion is a transport
// failure regardless of what the final attempt saw.
func classifyFailure(err error) FailureReason {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		ferrors.Is(err, ferrors.ErrCodeCancelled):
		return ReasonCancelled

	case errors.As(err, new(*budgetExhausted)):
		return ReasonRateLimited

	case errors.As(err, new(*ferrors.RetriesExhaustedError)):
		return ReasonTransport

	case ferrors.IsRateLimited(err):
		return ReasonRateLimited

	case ferrors.Is(err, ferrors.ErrCodeDecode):
		return ReasonDecode

	case ferrors.Is(err, ferrors.ErrCodePaginationExhausted):
		return ReasonPagination

	default:
		return ReasonTransport
	}
}
