package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/carecircle/backend/internal/cache"
	"github.com/carecircle/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WindowCounter counts requests per key within a fixed window
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisRateLimitMiddleware is a fixed-window limiter shared across
// instances. A counter failure rejects with 503 rather than letting
// traffic through unmetered.
func RedisRateLimitMiddleware(counter WindowCounter, config RateLimitConfig) gin.HandlerFunc {
	config = config.withDefaults()

	return func(c *gin.Context) {
		clientKey := config.key(c)
		key := fmt.Sprintf("rate_limit:%s:%d", clientKey, time.Now().UnixNano()/int64(config.Window))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := counter.IncrWindow(ctx, key, config.Window)
		if err != nil {
			logger.Log.Error("Rate limit check failed, rejecting request",
				zap.String("client", clientKey),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code":    "SERVICE_UNAVAILABLE",
				"message": "service temporarily unavailable",
			})
			return
		}

		remaining := config.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(config.Limit) {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				zap.Int("max_requests", config.Limit),
				zap.Int64("current_requests", count),
			)
			rejectRateLimited(c, config.Limit, int(config.Window.Seconds()))
			return
		}
		c.Next()
	}
}

// RateLimit picks the redis limiter when rc is set and the in-process one otherwise
func RateLimit(rc *cache.RedisClient, config RateLimitConfig) gin.HandlerFunc {
	if rc == nil {
		return NewRateLimiter(config)
	}
	return RedisRateLimitMiddleware(rc, config)
}
