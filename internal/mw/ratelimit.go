package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// perIPLimiters hands out one token bucket per client IP.
type perIPLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (p *perIPLimiters) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[ip]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[ip] = l
	}
	return l
}

// RateLimiter rejects requests from clients that exceed r requests per
// second with the given burst.
func RateLimiter(r rate.Limit, burst int) gin.HandlerFunc {
	limiters := &perIPLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    r,
		burst:    burst,
	}
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
