package http

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// RateLimit rejects requests beyond a token bucket of limit requests per
// second with the given burst. The bucket is shared by every caller.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(1))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
