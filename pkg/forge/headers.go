package forge

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/forgestats/forgestats/pkg/ratelimit"
)

// Rate-limit and conditional-request headers used by the forge API.
const (
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateReset     = "X-RateLimit-Reset"
	HeaderRetryAfter    = "Retry-After"
	HeaderETag          = "ETag"
	HeaderIfNoneMatch   = "If-None-Match"
	HeaderLink          = "Link"
)

// RateBudget parses the rate-limit headers into a budget. ok is false when
// the response carried no rate information (some error responses omit it).
func RateBudget(h http.Header) (ratelimit.Budget, bool) {
	var b ratelimit.Budget
	ok := false

	if v := h.Get(HeaderRateRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			b.Remaining = n
			ok = true
		}
	}
	if v := h.Get(HeaderRateLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			b.Limit = n
			ok = true
		}
	}
	if v := h.Get(HeaderRateReset); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			b.ResetAt = time.Unix(unix, 0)
			ok = true
		}
	}
	return b, ok
}

// RetryAfter returns the server-mandated wait from a Retry-After header,
// or zero if absent.
func RetryAfter(h http.Header) time.Duration {
	v := h.Get(HeaderRetryAfter)
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// ETag returns the response's entity tag, usable as a freshness marker in
// a later If-None-Match request. Weak validator prefixes are kept as-is;
// the forge compares them correctly.
func ETag(h http.Header) string {
	return h.Get(HeaderETag)
}

// NextPage extracts the rel="next" URL from an RFC 5988 Link header.
// It returns the empty string when there is no further page, which is the
// forge's way of terminating a cursor chain.
func NextPage(h http.Header) string {
	link := h.Get(HeaderLink)
	if link == "" {
		return ""
	}

	for _, part := range strings.Split(link, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		urlPart := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		for _, param := range sections[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return urlPart
			}
		}
	}
	return ""
}
