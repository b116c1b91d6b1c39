// file: internal/middleware/rate_limiter.go
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"ecolearn/internal/cache"

	"go.uber.org/zap"
)

// RateLimiterConfig controls per-IP request limiting
type RateLimiterConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// RateLimit throttles clients by IP over a fixed one-minute window. The
// counter lives in the shared cache, so limits hold across instances
// when redis is configured.
func RateLimit(cfg *RateLimiterConfig, store cache.Cache, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			window := time.Now().Unix() / 60
			key := fmt.Sprintf("ratelimit:%s:%d", getClientIP(r), window)

			count, err := store.Increment(r.Context(), key, 1)
			if err != nil {
				// Fail open; dropping traffic on a cache hiccup hurts more.
				GetLogger(r.Context()).Warn("Rate limit counter failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				// First hit in this window. Without an expiry the redis
				// keyspace grows by one key per (ip, minute) forever.
				if err := store.Expire(r.Context(), key, 2*time.Minute); err != nil {
					GetLogger(r.Context()).Warn("Rate limit expiry failed", zap.Error(err))
				}
			}

			remaining := int64(cfg.RequestsPerMinute) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RequestsPerMinute))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

			if count > int64(cfg.RequestsPerMinute) {
				w.Header().Set("Retry-After", "60")
				writeMiddlewareError(w, r, http.StatusTooManyRequests,
					"RATE_LIMIT", "too many requests, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
