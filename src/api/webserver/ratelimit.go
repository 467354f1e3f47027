package webserver

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	rate     int           // requests per window
	window   time.Duration // time window
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		rate:     rate,
		window:   window,
	}

	// Cleanup old entries periodically
	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for range ticker.C {
			rl.cleanup()
		}
	}()

	return rl
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, times := range rl.requests {
		valid := times[:0]
		for _, t := range times {
			if now.Sub(t) < rl.window {
				valid = append(valid, t)
			}
		}
		if len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Key by caller address, falling back to client IP
		key := c.GetString("addr")
		if key == "" {
			key = c.ClientIP()
		}

		limiter.mu.Lock()
		defer limiter.mu.Unlock()

		now := time.Now()
		valid := []time.Time{}
		for _, t := range limiter.requests[key] {
			if now.Sub(t) < limiter.window {
				valid = append(valid, t)
			}
		}

		if len(valid) >= limiter.rate {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"err": fmt.Sprintf("rate limit exceeded: %d requests per %v", limiter.rate, limiter.window),
			})
			c.Abort()
			return
		}

		limiter.requests[key] = append(valid, now)
		c.Next()
	}
}
