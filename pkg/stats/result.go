package stats

import (
	"time"
)

// Contributor is one repository contributor with their commit count.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

// Commit is one commit record from the repository's default branch.
type Commit struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author,omitempty"`
	AuthoredAt time.Time `json:"authored_at"`
	Message    string    `json:"message,omitempty"`
}

// StatResult is the materialized statistic for one category: a count or an
// ordered record sequence, plus the freshness marker for conditional
// re-fetch. Exactly one payload field is populated, matching the category.
type StatResult struct {
	Category Category `json:"category"`

	Count        int              `json:"count"`
	Contributors []Contributor    `json:"contributors,omitempty"`
	Commits      []Commit         `json:"commits,omitempty"`
	Activity     *ActivitySummary `json:"activity,omitempty"`

	// ETag is the freshness marker reported by the forge; supplying it on
	// a later fetch turns an unchanged category into a single cheap request.
	ETag string `json:"etag,omitempty"`

	// Truncated is set when a record sequence stopped at the page ceiling.
	Truncated bool `json:"truncated,omitempty"`

	FetchedAt time.Time `json:"fetched_at"`
}

// FailureReason classifies why a category could not be fetched.
type FailureReason string

const (
	// ReasonRateLimited: the request budget was exhausted before the
	// category could be fetched. Recoverable by waiting for the reset.
	ReasonRateLimited FailureReason = "rate_limited"

	// ReasonTransport: retries were exhausted or the forge rejected the
	// request permanently.
	ReasonTransport FailureReason = "transport"

	// ReasonDecode: the response body could not be parsed.
	ReasonDecode FailureReason = "decode"

	// ReasonPagination: the runaway-pagination guard tripped.
	ReasonPagination FailureReason = "pagination"

	// ReasonCancelled: the caller cancelled the snapshot.
	ReasonCancelled FailureReason = "cancelled"
)

// FetchFailure records one category's failure inside a snapshot.
type FetchFailure struct {
	Category Category      `json:"category"`
	Reason   FailureReason `json:"reason"`
	Message  string        `json:"message,omitempty"`
}

// Status is the overall outcome of a snapshot.
type Status string

const (
	// StatusComplete: every requested category succeeded.
	StatusComplete Status = "complete"

	// StatusPartialFailure: at least one category failed; the failure set
	// lists which and why.
	StatusPartialFailure Status = "partial_failure"
)

// RepositorySnapshot is a point-in-time, fully-materialized set of
// statistics for one repository.
//
// Invariant: every requested category appears exactly once, in either
// Results or Failures - never both, never absent.
type RepositorySnapshot struct {
	ID      string        `json:"id"`
	Repo    RepositoryRef `json:"repo"`
	TakenAt time.Time     `json:"taken_at"`

	Results  map[Category]StatResult   `json:"results"`
	Failures map[Category]FetchFailure `json:"failures,omitempty"`

	Status Status `json:"status"`
}

// Result returns the stat for a category, if it succeeded.
func (s *RepositorySnapshot) Result(cat Category) (StatResult, bool) {
	if s == nil {
		return StatResult{}, false
	}
	r, ok := s.Results[cat]
	return r, ok
}

// Complete reports whether every requested category succeeded.
func (s *RepositorySnapshot) Complete() bool {
	return s != nil && s.Status == StatusComplete
}

// FailedCategories lists the categories in the failure set, in stable
// category order.
func (s *RepositorySnapshot) FailedCategories() []Category {
	if s == nil || len(s.Failures) == 0 {
		return nil
	}
	var failed []Category
	for _, cat := range AllCategories() {
		if _, ok := s.Failures[cat]; ok {
			failed = append(failed, cat)
		}
	}
	return failed
}

// Categories lists every category present in the snapshot, in stable order.
func (s *RepositorySnapshot) Categories() []Category {
	if s == nil {
		return nil
	}
	var cats []Category
	for _, cat := range AllCategories() {
		if _, ok := s.Results[cat]; ok {
			cats = append(cats, cat)
			continue
		}
		if _, ok := s.Failures[cat]; ok {
			cats = append(cats, cat)
		}
	}
	return cats
}
