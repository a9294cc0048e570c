package stats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
)

// Category is one independently fetchable statistic.
type Category string

const (
	CategoryStars          Category = "stars"
	CategoryForks          Category = "forks"
	CategoryOpenIssues     Category = "open_issues"
	CategoryClosedIssues   Category = "closed_issues"
	CategoryMergedPulls    Category = "merged_pulls"
	CategoryContributors   Category = "contributors"
	CategoryCommits        Category = "commits"
	CategoryCommitActivity Category = "commit_activity"
)

// AllCategories returns every known category in stable display order.
func AllCategories() []Category {
	return []Category{
		CategoryStars,
		CategoryForks,
		CategoryOpenIssues,
		CategoryClosedIssues,
		CategoryMergedPulls,
		CategoryContributors,
		CategoryCommits,
		CategoryCommitActivity,
	}
}

// ParseCategory resolves a category name, accepting hyphens for
// underscores.
func ParseCategory(s string) (Category, error) {
	cat := Category(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := categorySpecs[cat]; !ok {
		return "", ferrors.New(ferrors.ErrCodeInvalidCategory, "unknown category %q", s)
	}
	return cat, nil
}

// ParseCategories resolves a list of category names, deduplicating while
// preserving order. An empty list means all categories.
func ParseCategories(names []string) ([]Category, error) {
	if len(names) == 0 {
		return AllCategories(), nil
	}
	seen := make(map[Category]bool, len(names))
	var cats []Category
	for _, n := range names {
		cat, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		if !seen[cat] {
			seen[cat] = true
			cats = append(cats, cat)
		}
	}
	return cats, nil
}

// fetchKind selects how a category's endpoint is driven and decoded.
type fetchKind int

const (
	kindRepoField   fetchKind = iota // single repo document, one field
	kindSearchCount                  // search endpoint, total_count only
	kindList                         // paginated record list
	kindActivity                     // stats endpoint, weekly buckets
)

// perPage is the page size requested for list endpoints; the forge caps
// pages at 100 items.
const perPage = 100

// categorySpec is the dispatch entry for one category: its endpoint,
// whether it paginates, and how its payload decodes. Categories are a
// closed set, so a lookup table beats polymorphism here.
type categorySpec struct {
	kind   fetchKind
	path   func(ref RepositoryRef) string
	decode func(res *StatResult, body []byte) error
}

var categorySpecs = map[Category]categorySpec{
	CategoryStars: {
		kind: kindRepoField,
		path: func(r RepositoryRef) string { return fmt.Sprintf("/repos/%s/%s", r.Owner, r.Name) },
		decode: func(res *StatResult, body []byte) error {
			var p repoPayload
			if err := decodeJSON(body, &p); err != nil {
				return err
			}
			res.Count = p.Stargazers
			return nil
		},
	},
	CategoryForks: {
		kind: kindRepoField,
		path: func(r RepositoryRef) string { return fmt.Sprintf("/repos/%s/%s", r.Owner, r.Name) },
		decode: func(res *StatResult, body []byte) error {
			var p repoPayload
			if err := decodeJSON(body, &p); err != nil {
				return err
			}
			res.Count = p.Forks
			return nil
		},
	},
	CategoryOpenIssues: {
		kind: kindSearchCount,
		path: func(r RepositoryRef) string {
			return searchPath(NewQuery().Repo(r.Owner, r.Name).Is("issue").Is("open"))
		},
		decode: decodeSearchCount,
	},
	CategoryClosedIssues: {
		kind: kindSearchCount,
		path: func(r RepositoryRef) string {
			return searchPath(NewQuery().Repo(r.Owner, r.Name).Is("issue").Is("closed"))
		},
		decode: decodeSearchCount,
	},
	CategoryMergedPulls: {
		kind: kindSearchCount,
		path: func(r RepositoryRef) string {
			return searchPath(NewQuery().Repo(r.Owner, r.Name).Is("pr").Is("merged"))
		},
		decode: decodeSearchCount,
	},
	CategoryContributors: {
		kind: kindList,
		path: func(r RepositoryRef) string {
			return fmt.Sprintf("/repos/%s/%s/contributors?per_page=%d", r.Owner, r.Name, perPage)
		},
		decode: func(res *StatResult, body []byte) error {
			var page []contributorPayload
			if err := decodeJSON(body, &page); err != nil {
				return err
			}
			for _, c := range page {
				if c.Type == "Bot" {
					continue
				}
				res.Contributors = append(res.Contributors, Contributor{
					Login:         c.Login,
					Contributions: c.Contributions,
				})
			}
			res.Count = len(res.Contributors)
			return nil
		},
	},
	CategoryCommits: {
		kind: kindList,
		path: func(r RepositoryRef) string {
			return fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", r.Owner, r.Name, perPage)
		},
		decode: func(res *StatResult, body []byte) error {
			var page []commitPayload
			if err := decodeJSON(body, &page); err != nil {
				return err
			}
			for _, c := range page {
				commit := Commit{
					SHA:        c.SHA,
					Author:     c.Commit.Author.Name,
					AuthoredAt: c.Commit.Author.Date,
					Message:    firstLine(c.Commit.Message),
				}
				if c.Author != nil && c.Author.Login != "" {
					commit.Author = c.Author.Login
				}
				res.Commits = append(res.Commits, commit)
			}
			res.Count = len(res.Commits)
			return nil
		},
	},
	CategoryCommitActivity: {
		kind: kindActivity,
		path: func(r RepositoryRef) string {
			return fmt.Sprintf("/repos/%s/%s/stats/commit_activity", r.Owner, r.Name)
		},
		decode: func(res *StatResult, body []byte) error {
			var payload []weekPayload
			if err := decodeJSON(body, &payload); err != nil {
				return err
			}
			weeks := make([]WeekActivity, len(payload))
			for i, w := range payload {
				weeks[i] = WeekActivity{
					WeekStart: time.Unix(w.Week, 0).UTC(),
					Total:     w.Total,
					Days:      w.Days,
				}
			}
			res.Activity = SummarizeActivity(weeks)
			res.Count = res.Activity.TotalCommits
			return nil
		},
	},
}

func searchPath(q *Query) string {
	// per_page=1: only total_count matters, so shrink the response.
	return "/search/issues?per_page=1&q=" + q.Encode()
}

func decodeSearchCount(res *StatResult, body []byte) error {
	var p searchPayload
	if err := decodeJSON(body, &p); err != nil {
		return err
	}
	res.Count = p.TotalCount
	return nil
}

func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeDecode, err, "decode response")
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Wire payloads, matching the forge's JSON field names.

type repoPayload struct {
	Stargazers int `json:"stargazers_count"`
	Forks      int `json:"forks_count"`
}

type searchPayload struct {
	TotalCount int `json:"total_count"`
}

type contributorPayload struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	Type          string `json:"type"`
}

type commitPayload struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
}

type weekPayload struct {
	Week  int64 `json:"week"`
	Total int   `json:"total"`
	Days  []int `json:"days"`
}
