package stats

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
	"github.com/forgestats/forgestats/pkg/forge"
	"github.com/forgestats/forgestats/pkg/httputil"
	"github.com/forgestats/forgestats/pkg/observability"
	"github.com/forgestats/forgestats/pkg/paginate"
	"github.com/forgestats/forgestats/pkg/ratelimit"
)

// Fetcher retrieves one statistic category at a time. It composes the
// transport, the shared rate budget, the retry controller, and the
// paginator into a single Fetch operation.
//
// A Fetcher is safe for concurrent use: each Fetch call builds its own
// pager and retry state, and the budget tracker handles its own locking.
type Fetcher struct {
	transport forge.Transport
	budget    *ratelimit.Tracker
	baseURL   string
	retry     httputil.Policy
	ceiling   int
	logger    *log.Logger
}

// FetchOptions configures a Fetcher. Zero values fall back to defaults.
type FetchOptions struct {
	// BaseURL overrides the forge endpoint, mainly for tests.
	BaseURL string

	// Retry is the per-request retry schedule.
	Retry httputil.Policy

	// PageCeiling stops list categories after this many pages and marks
	// the result truncated. Zero walks the full collection.
	PageCeiling int

	Logger *log.Logger
}

// NewFetcher creates a fetcher over the given transport and budget.
func NewFetcher(transport forge.Transport, budget *ratelimit.Tracker, opts FetchOptions) *Fetcher {
	if budget == nil {
		budget = ratelimit.NewTracker(ratelimit.Config{})
	}
	if opts.BaseURL == "" {
		opts.BaseURL = forge.DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Fetcher{
		transport: transport,
		budget:    budget,
		baseURL:   opts.BaseURL,
		retry:     opts.Retry,
		ceiling:   opts.PageCeiling,
		logger:    opts.Logger,
	}
}

// Fetch retrieves one category for the repository. Passing the previous
// result for the same category enables a conditional request: if the data
// is unchanged on the forge, the previous result is returned as-is at the
// cost of a single request unit.
func (f *Fetcher) Fetch(ctx context.Context, ref RepositoryRef, cat Category, prev *StatResult) (StatResult, error) {
	spec, ok := categorySpecs[cat]
	if !ok {
		return StatResult{}, ferrors.New(ferrors.ErrCodeInvalidCategory, "unknown category %q", cat)
	}
	if err := ref.Validate(); err != nil {
		return StatResult{}, err
	}
	if prev != nil && prev.Category != cat {
		prev = nil
	}

	start := time.Now()
	observability.Fetch().OnFetchStart(ctx, string(cat))

	res, err := f.fetch(ctx, ref, cat, spec, prev)

	observability.Fetch().OnFetchComplete(ctx, string(cat), time.Since(start), err)
	return res, err
}

func (f *Fetcher) fetch(ctx context.Context, ref RepositoryRef, cat Category, spec categorySpec, prev *StatResult) (StatResult, error) {
	res := StatResult{Category: cat, FetchedAt: time.Now().UTC()}
	url := f.baseURL + spec.path(ref)

	if spec.kind == kindList {
		return f.fetchPaged(ctx, cat, spec, url, prev, res)
	}
	return f.fetchSingle(ctx, cat, spec, url, prev, res)
}

// fetchSingle handles the one-request categories: repo-document fields,
// search counts, and the activity endpoint.
func (f *Fetcher) fetchSingle(ctx context.Context, cat Category, spec categorySpec, url string, prev *StatResult, res StatResult) (StatResult, error) {
	var checks []func(*forge.Response) error
	if spec.kind == kindActivity {
		checks = append(checks, rejectAccepted)
	}

	resp, err := f.do(ctx, cat, url, prevETag(prev), checks...)
	if errors.Is(err, forge.ErrNotModified) {
		if prev == nil {
			return res, ferrors.New(ferrors.ErrCodeNetwork, "304 without a conditional baseline")
		}
		f.logger.Debug("category unchanged", "category", cat)
		return *prev, nil
	}
	if err != nil {
		return res, err
	}

	if err := spec.decode(&res, resp.Body); err != nil {
		return res, err
	}
	res.ETag = forge.ETag(resp.Header)
	return res, nil
}

// fetchPaged walks a list category page by page, following the forge's
// Link-header cursors. Only the first page carries the conditional header;
// a 304 there means the whole collection is unchanged.
func (f *Fetcher) fetchPaged(ctx context.Context, cat Category, spec categorySpec, firstURL string, prev *StatResult, res StatResult) (StatResult, error) {
	pager := paginate.New(func(ctx context.Context, tok paginate.Token) (paginate.Page[*forge.Response], error) {
		url, etag := firstURL, prevETag(prev)
		if tok != paginate.None {
			url, etag = string(tok), ""
		}

		resp, err := f.do(ctx, cat, url, etag)
		if err != nil {
			return paginate.Page[*forge.Response]{}, err
		}
		return paginate.Page[*forge.Response]{
			Items: []*forge.Response{resp},
			Next:  paginate.Token(forge.NextPage(resp.Header)),
		}, nil
	}, paginate.Options{Ceiling: f.ceiling})

	for {
		pages, ok, err := pager.Next(ctx)
		if err != nil {
			if errors.Is(err, forge.ErrNotModified) {
				if prev == nil {
					return res, ferrors.New(ferrors.ErrCodeNetwork, "304 without a conditional baseline")
				}
				f.logger.Debug("category unchanged", "category", cat)
				return *prev, nil
			}
			return res, err
		}
		if !ok {
			break
		}

		for _, resp := range pages {
			if res.ETag == "" {
				res.ETag = forge.ETag(resp.Header)
			}
			before := res.Count
			if err := spec.decode(&res, resp.Body); err != nil {
				return res, err
			}
			observability.Fetch().OnPage(ctx, string(cat), pager.Pages(), res.Count-before)
		}
	}

	res.Truncated = pager.Truncated()
	return res, nil
}

// do sends one request under the retry policy. Each attempt reserves a
// budget unit first and feeds the response's rate headers back into the
// tracker, so the budget stays authoritative across retries.
func (f *Fetcher) do(ctx context.Context, cat Category, url, etag string, checks ...func(*forge.Response) error) (*forge.Response, error) {
	policy := f.retry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		f.logger.Debug("retrying", "category", cat, "attempt", attempt, "delay", delay, "err", err)
		observability.Fetch().OnRetry(ctx, string(cat), attempt, delay, err)
	}

	var resp *forge.Response
	err := httputil.Retry(ctx, policy, func() error {
		if err := f.budget.Acquire(ctx); err != nil {
			var rle *ferrors.RateLimitedError
			if errors.As(err, &rle) {
				return &budgetExhausted{cause: rle}
			}
			return err
		}

		req := forge.NewRequest(url)
		if etag != "" {
			req.Header.Set(forge.HeaderIfNoneMatch, etag)
		}

		r, err := f.transport.Do(ctx, req)
		if err != nil {
			return err
		}
		if budget, ok := forge.RateBudget(r.Header); ok {
			f.budget.Update(budget)
		}
		if err := forge.CheckStatus(r); err != nil {
			return err
		}
		for _, check := range checks {
			if err := check(r); err != nil {
				return err
			}
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// rejectAccepted turns a 202 from the activity endpoint into a transient
// error: the forge computes activity stats lazily and answers 202 until
// the aggregation is ready.
func rejectAccepted(resp *forge.Response) error {
	if resp.StatusCode == http.StatusAccepted {
		return httputil.Retryable(ferrors.New(ferrors.ErrCodeInternal,
			"activity aggregation in progress (status 202)"))
	}
	return nil
}

func prevETag(prev *StatResult) string {
	if prev == nil {
		return ""
	}
	return prev.ETag
}

// budgetExhausted marks a local reservation failure. It deliberately does
// not unwrap to the underlying RateLimitedError: the retry controller
// would otherwise sleep until the reset, but a locally exhausted budget
// should fail the category fast and let the caller decide whether to wait.
type budgetExhausted struct{ cause *ferrors.RateLimitedError }

func (e *budgetExhausted) Error() string { return e.cause.Error() }
