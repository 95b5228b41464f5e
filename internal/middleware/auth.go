package middleware

import (
	"strings"

	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenValidator resolves a bearer token to an active user
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.User, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Required rejects requests without a valid token for an active account
func Required(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.RespondUnauthorized(c, "access token required")
			return
		}
		user, err := validator.ValidateToken(token)
		if err != nil {
			logger.Log.Debug("Token rejected", zap.Error(err), logger.WithIP(c.ClientIP()))
			util.RespondUnauthorized(c, "invalid or expired token")
			return
		}
		util.SetUser(c, user)
		c.Next()
	}
}

// Optional attaches the caller when a valid token is present and otherwise
// continues anonymously
func Optional(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user, err := validator.ValidateToken(token); err == nil {
				util.SetUser(c, user)
			}
		}
		c.Next()
	}
}

// RequireRole allows only callers whose role is one of roles. It must run
// after Required.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		util.RespondForbidden(c, "insufficient permissions")
	}
}

// RequireAdmin allows only admins
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
