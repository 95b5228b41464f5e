package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func hit(router http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(RateLimitConfig{Limit: 3, Window: time.Second}))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "").Code, "request %d should succeed", i+1)
	}

	w := hit(router, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	time.Sleep(time.Second + 100*time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(router, "").Code, "request after refill should succeed")
}

func TestRateLimiterDifferentClients(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(RateLimitConfig{Limit: 2, Window: time.Minute}))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1234").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.2:1234").Code, "other client has its own bucket")
}

func TestRateLimiterKeyFunc(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(RateLimitConfig{
		Limit:   1,
		Window:  time.Minute,
		KeyFunc: func(*gin.Context) string { return "shared" },
	}))

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.2:1").Code)
}

func TestMemoryLimiterPrune(t *testing.T) {
	limiter := newMemoryLimiter(RateLimitConfig{Limit: 5, Window: time.Minute})
	now := time.Now()
	_, ok := limiter.reserve("a", now)
	require.True(t, ok)
	limiter.reserve("b", now)

	assert.Equal(t, 0, limiter.prune(time.Hour, now))
	assert.Equal(t, 2, limiter.prune(time.Second, now.Add(time.Minute)))
}

func TestRateLimiterRetryAfterCoversRefill(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(RateLimitConfig{Limit: 1, Window: time.Minute}))

	require.Equal(t, http.StatusOK, hit(router, "").Code)
	w := hit(router, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeCounter) IncrWindow(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key], nil
}

func TestRedisRateLimitMiddleware(t *testing.T) {
	router := newLimitedRouter(RedisRateLimitMiddleware(&fakeCounter{}, RateLimitConfig{Limit: 2, Window: time.Hour}))

	w := hit(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, hit(router, "").Code)

	w = hit(router, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
}

func TestRedisRateLimitMiddlewareFailsClosed(t *testing.T) {
	router := newLimitedRouter(RedisRateLimitMiddleware(&fakeCounter{err: errors.New("connection refused")}, DefaultRateLimitConfig()))

	assert.Equal(t, http.StatusServiceUnavailable, hit(router, "").Code)
}

func TestRateLimitWithoutRedisUsesMemory(t *testing.T) {
	router := newLimitedRouter(RateLimit(nil, RateLimitConfig{Limit: 1, Window: time.Minute}))

	assert.Equal(t, http.StatusOK, hit(router, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "").Code)
}
