package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"commuto/internal/domain/fault"
	"commuto/internal/general/jwt"
	"commuto/internal/observability"
)

// MiddlewareFunc enforces a per-user quota for one operation class. It must
// run after the auth middleware so the subject is available; unauthenticated
// requests fall back to the remote address as the key.
func MiddlewareFunc(l *Limiter, op string, limit int) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if c, ok := jwt.FromContext(r.Context()); ok {
				key = c.Subject
			}

			if err := l.Allow(op+":"+key, limit); err != nil {
				observability.RateLimitedTotal.Inc()
				fe, _ := fault.As(err)
				retry := int(fe.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       fmt.Sprintf("rate limit exceeded, retry in %d seconds", retry),
					"retry_after": retry,
				})
				return
			}

			next(w, r)
		}
	}
}
