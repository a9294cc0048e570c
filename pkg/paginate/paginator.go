// Package paginate drives multi-page collection retrieval.
//
// A [Pager] wraps a page-fetch function and walks the cursor chain the
// forge returns: each page carries its items and an opaque token for the
// next page. The pager is lazy (pages are fetched on demand), restartable
// from any cursor, and bounded by both a caller-imposed page ceiling and a
// hard runaway guard.
//
// The pager never retries on its own. Page-fetch functions are expected to
// carry their own retry wrapping (see the httputil package), so a returned
// error is already final for that page.
package paginate

import (
	"context"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
)

// Token identifies the next page to fetch. The empty token means there are
// no further pages. Its contents are opaque to the pager: depending on the
// endpoint it may be a full URL from a Link header or a stringified page
// number.
type Token string

// None is the zero token, denoting the end of the collection (or, as a
// start token, the first page).
const None Token = ""

// Page is one fetched page: its items plus the token for the next page.
type Page[T any] struct {
	Items []T
	Next  Token
}

// PageFunc fetches a single page. The first call receives the start token.
type PageFunc[T any] func(ctx context.Context, tok Token) (Page[T], error)

// HardPageLimit is the runaway-pagination guard: a collection spanning more
// pages than this fails with PAGINATION_EXHAUSTED rather than looping
// forever on a cursor quirk.
const HardPageLimit = 10000

// Options configures a Pager. The zero value walks the full collection.
type Options struct {
	// Start resumes pagination from a previously observed cursor.
	Start Token

	// Ceiling stops after this many pages and marks the result truncated.
	// Zero means no caller-imposed ceiling.
	Ceiling int

	// HardLimit overrides HardPageLimit. Zero keeps the default.
	HardLimit int
}

// Pager walks a paginated collection one page at a time.
// It is not safe for concurrent use; within one category, pages are fetched
// strictly in cursor order.
type Pager[T any] struct {
	fetch     PageFunc[T]
	next      Token
	ceiling   int
	hardLimit int
	pages     int
	done      bool
	truncated bool
}

// New creates a pager over fetch with the given options.
func New[T any](fetch PageFunc[T], opts Options) *Pager[T] {
	hard := opts.HardLimit
	if hard <= 0 {
		hard = HardPageLimit
	}
	return &Pager[T]{
		fetch:     fetch,
		next:      opts.Start,
		ceiling:   opts.Ceiling,
		hardLimit: hard,
	}
}

// Next fetches the next page and returns its items. It returns ok=false
// without fetching once the collection is exhausted, the ceiling was hit,
// or a previous call failed.
//
// An empty page with a non-empty next token does not end iteration: the
// forge occasionally emits such pages, so the pager keeps walking and
// relies on the hard limit to catch genuine cursor loops.
func (p *Pager[T]) Next(ctx context.Context) (items []T, ok bool, err error) {
	if p.done {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		p.done = true
		return nil, false, ferrors.Wrap(ferrors.ErrCodeCancelled, err, "pagination cancelled")
	}
	if p.ceiling > 0 && p.pages >= p.ceiling {
		p.done = true
		p.truncated = true
		return nil, false, nil
	}
	if p.pages >= p.hardLimit {
		p.done = true
		return nil, false, ferrors.New(ferrors.ErrCodePaginationExhausted,
			"pagination exceeded %d pages", p.hardLimit)
	}

	page, err := p.fetch(ctx, p.next)
	if err != nil {
		p.done = true
		return nil, false, err
	}

	p.pages++
	p.next = page.Next
	if p.next == None {
		p.done = true
	}
	return page.Items, true, nil
}

// Collect drains the pager and returns all items in page-then-within-page
// order. On error, items fetched so far are returned alongside it.
func (p *Pager[T]) Collect(ctx context.Context) ([]T, error) {
	var all []T
	for {
		items, ok, err := p.Next(ctx)
		if err != nil {
			return all, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, items...)
	}
}

// Truncated reports whether iteration stopped early at the caller's ceiling.
func (p *Pager[T]) Truncated() bool { return p.truncated }

// Pages returns the number of pages fetched so far.
func (p *Pager[T]) Pages() int { return p.pages }

// Cursor returns the token the next fetch would use, allowing a caller to
// resume a truncated walk later via Options.Start.
func (p *Pager[T]) Cursor() Token { return p.next }
