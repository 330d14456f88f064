package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/faiyaz7283/dashtam-authcore/internal/ratelimit"
)

// IdentifierFunc resolves the scope identifier (caller IP, or user ID once
// authenticated) for a request; RateLimit calls it once per request so the
// caller decides IP-vs-user scoping per endpoint.
type IdentifierFunc func(r *http.Request) string

// RateLimit enforces a *ratelimit.Limiter against endpoint (the
// "METHOD /path" key format the reference's middleware.go builds),
// writing the X-RateLimit-*/Retry-After headers and uniform 429 JSON
// body spec.md §6 requires. Store failures are handled by the Limiter
// itself (fail-open); this middleware always lets the request through
// when no Rule matches or the backend errored.
func RateLimit(limiter *ratelimit.Limiter, endpoint string, identifier IdentifierFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dec, ruled := limiter.Check(r.Context(), endpoint, identifier(r), time.Now())
			if ruled {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(dec.ResetAfter.Seconds())))
			}
			if !dec.Allowed {
				retryAfter := int(dec.RetryAfter.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"Rate limit exceeded","message":"too many requests","retry_after":%d,"endpoint":%q}`,
					retryAfter, endpoint)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
