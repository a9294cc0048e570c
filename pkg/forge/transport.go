// Package forge talks to the remote code-forge REST API.
//
// It defines the transport capability the stats engine consumes - a single
// Do method turning a request into a status code, headers, and raw body
// bytes - plus the conventions layered on the response: rate-limit headers,
// ETags for conditional requests, Link headers for pagination cursors, and
// the mapping from HTTP status codes to the engine's error taxonomy.
//
// Header names and status semantics follow the GitHub REST conventions and
// are fixed at compile time; they are the configuration-time constants the
// rest of the engine is written against.
package forge

import (
	"context"
	"net/http"
)

// Request is one outgoing API request.
type Request struct {
	Method string
	URL    string
	Header http.Header
}

// Response is the raw result of one API request: status, headers, and
// undecoded body bytes. Decoding into typed records happens upstream.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a single request. Implementations handle authentication
// and per-attempt timeouts; they do not retry, paginate, or interpret the
// response beyond reading it fully.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// NewRequest builds a GET request for the given URL with an empty header
// set ready for conditional-request headers.
func NewRequest(url string) *Request {
	return &Request{Method: http.MethodGet, URL: url, Header: make(http.Header)}
}
