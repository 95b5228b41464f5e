package util

import (
	stderrors "errors"
	"net/http"
	"os"

	"github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RespondWithAPIError aborts with apiErr. Server-side failures log at
// error, everything else at debug.
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	status := apiErr.Status
	if status == 0 {
		status = apiErr.Code.StatusCode()
	}

	lvl := zapcore.DebugLevel
	if status >= http.StatusInternalServerError {
		lvl = zapcore.ErrorLevel
	}
	if ce := logger.Log.Check(lvl, "API error"); ce != nil {
		ce.Write(
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("field", apiErr.Field),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
		)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// RespondWithError maps any service error onto the API error envelope.
// Unknown errors become 500 with the cause only shown in development.
func RespondWithError(c *gin.Context, err error) {
	if apiErr, ok := errors.As(err); ok {
		RespondWithAPIError(c, apiErr)
		return
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		RespondWithAPIError(c, errors.NotFound("resource"))
		return
	}

	metrics.RecordError("internal", c.FullPath())
	logger.Log.Error("Unhandled error", zap.Error(err), zap.String("path", c.FullPath()))

	resp := ErrorResponse{Code: string(errors.ErrInternalError), Message: "Internal server error"}
	if os.Getenv("ENVIRONMENT") == "development" {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
}

// RespondOK writes {"message": message, ...data}
func RespondOK(c *gin.Context, message string, data gin.H) {
	respond(c, http.StatusOK, message, data)
}

// RespondCreated writes a 201 with the same envelope as RespondOK
func RespondCreated(c *gin.Context, message string, data gin.H) {
	respond(c, http.StatusCreated, message, data)
}

func respond(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"message": message}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

func RespondUnauthorized(c *gin.Context, message ...string) {
	RespondWithAPIError(c, errors.Unauthorized(first(message, "authentication required")))
}

func RespondForbidden(c *gin.Context, message ...string) {
	RespondWithAPIError(c, errors.Forbidden(first(message, "forbidden")))
}

func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

func first(values []string, def string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return def
}

// RespondValidationError sends a 400 with the offending field
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}

// RespondBindError reports a request body that failed binding
func RespondBindError(c *gin.Context, err error) {
	RespondWithAPIError(c, errors.New(errors.ErrValidation, "invalid request body").WithDetails(err.Error()))
}
