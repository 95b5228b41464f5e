package middleware

import (
	"strconv"
	"time"

	"github.com/carecircle/backend/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request count, latency and response size. The
// path label is the route template so ids do not explode cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Initialize()

	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		// numeric status so queries like status=~"5.." match
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(startTime).Seconds())
		if size := c.Writer.Size(); size > 0 {
			m.HTTPResponseSize.WithLabelValues(method, path, status).Observe(float64(size))
		}
	}
}
