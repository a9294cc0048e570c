package forge

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	ferrors "github.com/forgestats/forgestats/pkg/errors"
	"github.com/forgestats/forgestats/pkg/httputil"
	"github.com/forgestats/forgestats/pkg/observability"
)

// DefaultBaseURL is the public API endpoint of the targeted forge.
const DefaultBaseURL = "https://api.github.com"

const (
	// requestTimeout applies per attempt, not per logical fetch; a slow
	// attempt is classified transient and retried upstream.
	requestTimeout = 30 * time.Second

	// maxBodyBytes bounds how much of a response body is read. Stat
	// payloads are small; anything larger is a misbehaving endpoint.
	maxBodyBytes = 10 << 20

	acceptHeader = "application/vnd.github+json"
)

// HTTPTransport is the production Transport: a plain HTTP client with
// optional token authentication, a per-attempt timeout, and default
// headers applied to every request.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport. Pass an empty token for
// unauthenticated requests (the forge grants those a much smaller budget).
func NewHTTPTransport(token string) *HTTPTransport {
	client := &http.Client{Timeout: requestTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client.Transport = &oauth2.Transport{Base: http.DefaultTransport, Source: ts}
	}
	return &HTTPTransport{client: client}
}

// Do sends one request and reads the full response body.
// Network-level failures come back wrapped as retryable so the retry
// controller attempts them again; timeouts are classified separately.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "build request")
	}

	httpReq.Header.Set("Accept", acceptHeader)
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	host, path := requestTarget(req.URL)
	observability.HTTP().OnRequest(ctx, req.Method, host, path)

	start := time.Now()
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeCancelled, ctx.Err(), "request cancelled")
		}
		if isTimeout(err) {
			return nil, httputil.Retryable(ferrors.Wrap(ferrors.ErrCodeTimeout, err, "request timed out"))
		}
		return nil, httputil.Retryable(ferrors.Wrap(ferrors.ErrCodeNetwork, err, "request failed"))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, err)
		return nil, httputil.Retryable(ferrors.Wrap(ferrors.ErrCodeNetwork, err, "read response body"))
	}

	observability.HTTP().OnResponse(ctx, req.Method, host, path, httpResp.StatusCode, time.Since(start))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func requestTarget(raw string) (host, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw
	}
	return u.Host, u.Path
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	for e := err; e != nil; {
		if t, ok := e.(timeout); ok && t.Timeout() {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}
