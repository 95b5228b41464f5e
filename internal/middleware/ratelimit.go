package middleware

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig allows Limit requests per Window for each key
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc picks the bucket for a request; defaults to the client IP
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimitConfig returns the general API limit
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:  100,
		Window: time.Minute,
	}
}

// AuthRateLimitConfig returns stricter limits for login and registration
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:  10,
		Window: time.Minute,
	}
}

// UploadRateLimitConfig keys on the caller when authenticated
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:  20,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if id := util.CurrentUserID(c); id != "" {
				return "user:" + id
			}
			return c.ClientIP()
		},
	}
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRateLimitConfig().Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}

func (cfg RateLimitConfig) key(c *gin.Context) string {
	if cfg.KeyFunc != nil {
		return cfg.KeyFunc(c)
	}
	return c.ClientIP()
}

// memoryLimiter holds one token bucket per key for a single instance.
// A key refills at Limit per Window and bursts up to Limit.
type memoryLimiter struct {
	every rate.Limit
	burst int

	mu   sync.Mutex
	keys map[string]*limiterEntry
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newMemoryLimiter(config RateLimitConfig) *memoryLimiter {
	config = config.withDefaults()
	return &memoryLimiter{
		every: rate.Every(config.Window / time.Duration(config.Limit)),
		burst: config.Limit,
		keys:  make(map[string]*limiterEntry),
	}
}

// reserve takes a token for key, or reports how long until one is available
func (m *memoryLimiter) reserve(key string, now time.Time) (time.Duration, bool) {
	m.mu.Lock()
	entry, ok := m.keys[key]
	if !ok {
		entry = &limiterEntry{lim: rate.NewLimiter(m.every, m.burst)}
		m.keys[key] = entry
	}
	entry.seen = now
	m.mu.Unlock()

	r := entry.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay, false
	}
	return 0, true
}

// prune forgets keys idle longer than maxIdle
func (m *memoryLimiter) prune(maxIdle time.Duration, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.keys {
		if now.Sub(entry.seen) > maxIdle {
			delete(m.keys, key)
			removed++
		}
	}
	return removed
}

// NewRateLimiter limits requests in process with golang.org/x/time/rate
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	config = config.withDefaults()
	limiter := newMemoryLimiter(config)
	var requests atomic.Int64

	return func(c *gin.Context) {
		now := time.Now()
		if requests.Add(1)%1000 == 0 {
			limiter.prune(10*config.Window, now)
		}

		if wait, ok := limiter.reserve(config.key(c), now); !ok {
			rejectRateLimited(c, config.Limit, int(math.Ceil(wait.Seconds())))
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, limit, retryAfter int) {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	metrics.RecordRateLimitExceeded(path, c.Request.Method)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", "0")
	apiErr := apperrors.RateLimited("rate limit exceeded")
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"code":       apiErr.Code,
		"message":    apiErr.Message,
		"retryAfter": retryAfter,
	})
}
