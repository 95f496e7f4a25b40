package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Rituraj200000/googlemapscraper/models"
)

// RateLimit returns per-identity (API key or IP) token-bucket rate limiting.
// The status server lives only as long as one run, so limiters are never
// evicted.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	getLimiter := func(identity string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[identity]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[identity] = l
		}
		return l
	}

	return func(c *gin.Context) {
		// Prefer API key as identity (set by auth middleware); fall back to IP.
		identity := c.ClientIP()
		if key, ok := c.Get(identityKey); ok {
			identity = key.(string)
		}

		if !getLimiter(identity).Allow() {
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}
