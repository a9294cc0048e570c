package stats

import (
	"fmt"
	"net/url"
	"strings"
)

// Query builds a forge search query term by term.
//
// Count-only categories (open issues, merged pulls) are answered through
// the search endpoint: the query narrows the result set and the response's
// total count is the statistic, so a single one-item page suffices.
//
//	q := NewQuery().Repo("rust-lang", "rust").Is("pr").Is("merged")
//	// q.String() == `repo:rust-lang/rust is:pr is:merged`
type Query struct {
	terms []string
}

// NewQuery creates an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Repo scopes the query to one repository.
func (q *Query) Repo(owner, name string) *Query {
	q.terms = append(q.terms, fmt.Sprintf("repo:%s/%s", owner, name))
	return q
}

// Is adds an `is:` qualifier (issue, pr, open, closed, merged, ...).
func (q *Query) Is(state string) *Query {
	q.terms = append(q.terms, "is:"+state)
	return q
}

// Label filters by label name.
func (q *Query) Label(label string) *Query {
	if strings.ContainsRune(label, ' ') {
		label = `"` + label + `"`
	}
	q.terms = append(q.terms, "label:"+label)
	return q
}

// Author filters by item author.
func (q *Query) Author(login string) *Query {
	q.terms = append(q.terms, "author:"+login)
	return q
}

// String joins the terms with spaces.
func (q *Query) String() string {
	return strings.Join(q.terms, " ")
}

// Encode percent-encodes the query for use as a q= parameter.
func (q *Query) Encode() string {
	return url.QueryEscape(q.String())
}
