package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// counterStore is the slice of redis the limiter needs; *redis.Client
// satisfies it and tests substitute a fake.
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

type RateLimiter struct {
	store counterStore
}

func NewRateLimiter(store counterStore) *RateLimiter {
	return &RateLimiter{store: store}
}

// Limit caps requests per client IP for the route. Redis being down fails
// open: admission control is best-effort, never an outage amplifier.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl.check(c, fmt.Sprintf("rate_limit:%s:%s", keySuffix, c.ClientIP()), limit, window)
	}
}

// LimitUser caps requests per authenticated user; falls back to the client
// IP on public routes.
func (rl *RateLimiter) LimitUser(keySuffix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetString(CtxUserID)
		if id == "" {
			id = c.ClientIP()
		}
		rl.check(c, fmt.Sprintf("rate_limit:%s:%s", keySuffix, id), limit, window)
	}
}

func (rl *RateLimiter) check(c *gin.Context, key string, limit int, window time.Duration) {
	count, err := rl.store.Incr(c, key).Result()
	if err != nil {
		c.Next()
		return
	}

	// First hit of the window starts the clock.
	if count == 1 {
		rl.store.Expire(c, key, window)
	}

	if count > int64(limit) {
		ttl, _ := rl.store.TTL(c, key).Result()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":     false,
			"error":       "Too many requests",
			"retry_after": int(ttl.Seconds()),
		})
		return
	}
	c.Next()
}
