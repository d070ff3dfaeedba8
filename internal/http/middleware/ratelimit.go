// README: Per-caller token-bucket rate limiting.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/envelope"
)

// idleLimiter is how long an unused bucket is kept.
const idleLimiter = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows each caller (UID, or client IP when anonymous) perSecond
// requests with the given burst.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		buckets = map[string]*limiterEntry{}
		swept   = time.Now()
	)
	get := func(key string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if now.Sub(swept) > idleLimiter {
			for k, e := range buckets {
				if now.Sub(e.lastSeen) > idleLimiter {
					delete(buckets, k)
				}
			}
			swept = now
		}
		e, ok := buckets[key]
		if !ok {
			e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
			buckets[key] = e
		}
		e.lastSeen = now
		return e.limiter
	}

	return func(c *gin.Context) {
		key := CallerUID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !get(key, time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, envelope.Fail("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
