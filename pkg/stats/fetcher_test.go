package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
	"github.com/forgestats/forgestats/pkg/forge"
	"github.com/forgestats/forgestats/pkg/httputil"
	"github.com/forgestats/forgestats/pkg/ratelimit"
)

var testRef = RepositoryRef{Owner: "octocat", Name: "hello-world"}

// fastRetry keeps test retries in the microsecond range.
var fastRetry = httputil.Policy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

// fakeTransport routes requests to a handler and records every URL seen.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []*forge.Request
	handler func(req *forge.Request) (*forge.Response, error)
}

func (t *fakeTransport) Do(_ context.Context, req *forge.Request) (*forge.Response, error) {
	t.mu.Lock()
	t.calls = append(t.calls, req)
	t.mu.Unlock()
	return t.handler(req)
}

func (t *fakeTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func jsonResponse(status int, body string, hdr map[string]string) *forge.Response {
	h := make(http.Header)
	for k, v := range hdr {
		h.Set(k, v)
	}
	return &forge.Response{StatusCode: status, Header: h, Body: []byte(body)}
}

func newTestFetcher(t *fakeTransport) *Fetcher {
	return NewFetcher(t, nil, FetchOptions{BaseURL: "https://forge.test", Retry: fastRetry})
}

func TestFetchStars(t *testing.T) {
	tr := &fakeTransport{handler: func(req *forge.Request) (*forge.Response, error) {
		if want := "https://forge.test/repos/octocat/hello-world"; req.URL != want {
			t.Errorf("URL = %q, want %q", req.URL, want)
		}
		return jsonResponse(200, `{"stargazers_count":42,"forks_count":7}`,
			map[string]string{"ETag": `"abc"`}), nil
	}}

	res, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryStars, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Count != 42 {
		t.Errorf("Count = %d, want 42", res.Count)
	}
	if res.ETag != `"abc"` {
		t.Errorf("ETag = %q, want %q", res.ETag, `"abc"`)
	}
	if res.Category != CategoryStars {
		t.Errorf("Category = %q, want stars", res.Category)
	}
}

func TestFetchSearchCount(t *testing.T) {
	tr := &fakeTransport{handler: func(req *forge.Request) (*forge.Response, error) {
		if !strings.Contains(req.URL, "/search/issues?per_page=1&q=") {
			t.Errorf("URL = %q, want a one-item search query", req.URL)
		}
		if !strings.Contains(req.URL, "is%3Apr+is%3Amerged") {
			t.Errorf("URL = %q, missing pr/merged qualifiers", req.URL)
		}
		return jsonResponse(200, `{"total_count":1905}`, nil), nil
	}}

	res, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryMergedPulls, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Count != 1905 {
		t.Errorf("Count = %d, want 1905", res.Count)
	}
	if tr.callCount() != 1 {
		t.Errorf("calls = %d, want 1", tr.callCount())
	}
}

// Three pages of two commits each must come back in page-then-within-page
// order, exactly once per record.
func TestFetchCommitsFollowsPages(t *testing.T) {
	page := func(n int) string {
		return fmt.Sprintf(`[
			{"sha":"sha%d-1","commit":{"message":"m","author":{"name":"a","date":"2026-01-01T00:00:00Z"}}},
			{"sha":"sha%d-2","commit":{"message":"m","author":{"name":"a","date":"2026-01-01T00:00:00Z"}}}
		]`, n, n)
	}

	tr := &fakeTransport{}
	tr.handler = func(req *forge.Request) (*forge.Response, error) {
		switch {
		case strings.Contains(req.URL, "page=3"):
			return jsonResponse(200, page(3), nil), nil
		case strings.Contains(req.URL, "page=2"):
			return jsonResponse(200, page(2), map[string]string{
				"Link": `<https://forge.test/repos/octocat/hello-world/commits?page=3>; rel="next"`,
			}), nil
		default:
			return jsonResponse(200, page(1), map[string]string{
				"Link": `<https://forge.test/repos/octocat/hello-world/commits?page=2>; rel="next", <https://forge.test/x?page=3>; rel="last"`,
			}), nil
		}
	}

	res, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryCommits, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Count != 6 {
		t.Fatalf("Count = %d, want 6", res.Count)
	}
	want := []string{"sha1-1", "sha1-2", "sha2-1", "sha2-2", "sha3-1", "sha3-2"}
	for i, commit := range res.Commits {
		if commit.SHA != want[i] {
			t.Errorf("Commits[%d].SHA = %q, want %q", i, commit.SHA, want[i])
		}
	}
	if res.Truncated {
		t.Error("Truncated = true on a fully walked collection")
	}
}

func TestFetchRetriesTransientThenSucceeds(t *testing.T) {
	var n int
	tr := &fakeTransport{}
	tr.handler = func(*forge.Request) (*forge.Response, error) {
		n++
		if n < 4 {
			return jsonResponse(500, "", nil), nil
		}
		return jsonResponse(200, `{"stargazers_count":1,"forks_count":0}`, nil), nil
	}

	res, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryStars, nil)
	if err != nil {
		t.Fatalf("Fetch after transient failures: %v", err)
	}
	if res.Count != 1 {
		t.Errorf("Count = %d, want 1", res.Count)
	}
	if n != 4 {
		t.Errorf("attempts = %d, want 4", n)
	}
}

func TestFetchPermanentFailureIsNotRetried(t *testing.T) {
	tr := &fakeTransport{handler: func(*forge.Request) (*forge.Response, error) {
		return jsonResponse(404, "", nil), nil
	}}

	_, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryForks, nil)
	if !ferrors.Is(err, ferrors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if tr.callCount() != 1 {
		t.Errorf("calls = %d, want exactly 1 for a permanent failure", tr.callCount())
	}
}

func TestFetchRetriesExhausted(t *testing.T) {
	tr := &fakeTransport{handler: func(*forge.Request) (*forge.Response, error) {
		return jsonResponse(502, "", nil), nil
	}}

	_, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryStars, nil)
	var exhausted *ferrors.RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want RetriesExhaustedError", err)
	}
	if exhausted.Attempts != fastRetry.MaxAttempts {
		t.Errorf("Attempts = %d, want %d", exhausted.Attempts, fastRetry.MaxAttempts)
	}
	if tr.callCount() != fastRetry.MaxAttempts {
		t.Errorf("calls = %d, want %d", tr.callCount(), fastRetry.MaxAttempts)
	}
}

func TestFetchConditionalNotModified(t *testing.T) {
	prev := &StatResult{
		Category:  CategoryStars,
		Count:     42,
		ETag:      `"abc"`,
		FetchedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	tr := &fakeTransport{handler: func(req *forge.Request) (*forge.Response, error) {
		if got := req.Header.Get(forge.HeaderIfNoneMatch); got != `"abc"` {
			t.Errorf("If-None-Match = %q, want %q", got, `"abc"`)
		}
		return jsonResponse(304, "", nil), nil
	}}

	res, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryStars, prev)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(res, *prev) {
		t.Errorf("result = %+v, want previous result returned unchanged", res)
	}
	if tr.callCount() != 1 {
		t.Errorf("calls = %d, want a single conditional request", tr.callCount())
	}
}

// Only the first page of a list category carries the conditional header.
func TestFetchConditionalOnlyOnFirstPage(t *testing.T) {
	prev := &StatResult{Category: CategoryCommits, ETag: `"old"`}

	tr := &fakeTransport{}
	tr.handler = func(req *forge.Request) (*forge.Response, error) {
		if strings.Contains(req.URL, "page=2") {
			if req.Header.Get(forge.HeaderIfNoneMatch) != "" {
				t.Error("If-None-Match sent on a non-first page")
			}
			return jsonResponse(200, `[]`, nil), nil
		}
		if req.Header.Get(forge.HeaderIfNoneMatch) != `"old"` {
			t.Error("If-None-Match missing on the first page")
		}
		return jsonResponse(200, `[]`, map[string]string{
			"Link": `<https://forge.test/repos/octocat/hello-world/commits?page=2>; rel="next"`,
		}), nil
	}

	if _, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryCommits, prev); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if tr.callCount() != 2 {
		t.Errorf("calls = %d, want 2", tr.callCount())
	}
}

func TestFetchBudgetExhaustedFailsFast(t *testing.T) {
	budget := ratelimit.NewTracker(ratelimit.Config{})
	budget.Update(ratelimit.Budget{
		Remaining: 1, // at the default safety margin
		Limit:     5000,
		ResetAt:   time.Now().Add(time.Hour),
	})

	tr := &fakeTransport{handler: func(*forge.Request) (*forge.Response, error) {
		return jsonResponse(200, `{}`, nil), nil
	}}
	f := NewFetcher(tr, budget, FetchOptions{BaseURL: "https://forge.test", Retry: fastRetry})

	start := time.Now()
	_, err := f.Fetch(context.Background(), testRef, CategoryStars, nil)
	if err == nil {
		t.Fatal("Fetch succeeded with an exhausted budget")
	}
	if tr.callCount() != 0 {
		t.Errorf("calls = %d, want 0 when the budget is exhausted", tr.callCount())
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("took %v, want immediate failure rather than a reset wait", elapsed)
	}
	if classifyFailure(err) != ReasonRateLimited {
		t.Errorf("reason = %q, want %q", classifyFailure(err), ReasonRateLimited)
	}
}

func TestFetchPageCeilingTruncates(t *testing.T) {
	tr := &fakeTransport{handler: func(req *forge.Request) (*forge.Response, error) {
		// Every page links onward; only the ceiling stops the walk.
		return jsonResponse(200, `[{"login":"alice","contributions":1,"type":"User"}]`,
			map[string]string{
				"Link": `<https://forge.test/repos/octocat/hello-world/contributors?page=next>; rel="next"`,
			}), nil
	}}
	f := NewFetcher(tr, nil, FetchOptions{
		BaseURL: "https://forge.test", Retry: fastRetry, PageCeiling: 3,
	})

	res, err := f.Fetch(context.Background(), testRef, CategoryContributors, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true at the page ceiling")
	}
	if res.Count != 3 {
		t.Errorf("Count = %d, want 3 (one contributor per page, three pages)", res.Count)
	}
}

func TestFetchActivityRetriesAccepted(t *testing.T) {
	var n int
	tr := &fakeTransport{}
	tr.handler = func(*forge.Request) (*forge.Response, error) {
		n++
		if n == 1 {
			return jsonResponse(202, "", nil), nil
		}
		return jsonResponse(200,
			`[{"week":1754870400,"total":3,"days":[0,1,0,2,0,0,0]},
			  {"week":1755475200,"total":7,"days":[1,1,1,1,1,1,1]}]`, nil), nil
	}

	res, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryCommitActivity, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n != 2 {
		t.Errorf("attempts = %d, want 2 (202 then 200)", n)
	}
	if res.Activity == nil {
		t.Fatal("Activity = nil")
	}
	if res.Activity.TotalCommits != 10 {
		t.Errorf("TotalCommits = %d, want 10", res.Activity.TotalCommits)
	}
	if res.Activity.BusiestWeekCommits != 7 {
		t.Errorf("BusiestWeekCommits = %d, want 7", res.Activity.BusiestWeekCommits)
	}
}

func TestFetchUpdatesBudgetFromHeaders(t *testing.T) {
	budget := ratelimit.NewTracker(ratelimit.Config{})
	tr := &fakeTransport{handler: func(*forge.Request) (*forge.Response, error) {
		return jsonResponse(200, `{"stargazers_count":1}`, map[string]string{
			"X-RateLimit-Remaining": "123",
			"X-RateLimit-Limit":     "5000",
			"X-RateLimit-Reset":     "1756382400",
		}), nil
	}}
	f := NewFetcher(tr, budget, FetchOptions{BaseURL: "https://forge.test", Retry: fastRetry})

	if _, err := f.Fetch(context.Background(), testRef, CategoryStars, nil); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got := budget.Budget()
	if got.Remaining != 123 || got.Limit != 5000 {
		t.Errorf("budget = %+v, want header-derived values", got)
	}
}

func TestFetchDecodeFailure(t *testing.T) {
	tr := &fakeTransport{handler: func(*forge.Request) (*forge.Response, error) {
		return jsonResponse(200, `{not json`, nil), nil
	}}

	_, err := newTestFetcher(tr).Fetch(context.Background(), testRef, CategoryStars, nil)
	if !ferrors.Is(err, ferrors.ErrCodeDecode) {
		t.Fatalf("err = %v, want DECODE_ERROR", err)
	}
}
