package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiterTTL is how long an idle client keeps its token bucket.
const ipLimiterTTL = 10 * time.Minute

// pruneThreshold is the tracked-IP count above which a request sweeps
// out idle buckets before allocating a new one.
const pruneThreshold = 1024

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit provides per-IP token-bucket rate limiting.
// r = requests per second, b = burst size. Idle buckets are pruned
// inline once the table grows past pruneThreshold, so no background
// goroutine is needed.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*ipLimiter)

	getLimiter := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now()
		il, ok := limiters[ip]
		if !ok {
			if len(limiters) >= pruneThreshold {
				for k, v := range limiters {
					if now.Sub(v.lastSeen) > ipLimiterTTL {
						delete(limiters, k)
					}
				}
			}
			il = &ipLimiter{limiter: rate.NewLimiter(r, b)}
			limiters[ip] = il
		}
		il.lastSeen = now
		return il.limiter
	}

	return func(c *gin.Context) {
		if !getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
