package middleware

import (
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware returns otelgin followed by a handler that tags the
// request span with the caller, request id and handler errors. Install both:
// r.Use(TracingMiddleware(name)...).
func TracingMiddleware(serviceName string, opts ...otelgin.Option) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName, opts...), annotateSpan}
}

func annotateSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	c.Next()

	if !span.IsRecording() {
		return
	}
	if requestID := c.GetString(requestIDKey); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}
	if userID := util.CurrentUserID(c); userID != "" {
		span.SetAttributes(attribute.String("enduser.id", userID))
	}
	for _, ginErr := range c.Errors {
		span.RecordError(ginErr.Err)
	}
	if c.Writer.Status() >= 500 {
		span.SetStatus(codes.Error, "server error")
	}
}
