package util

import (
	"github.com/carecircle/backend/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// SetUser attaches the authenticated user to the request
func SetUser(c *gin.Context, user *models.User) {
	c.Set(ContextUserKey, user)
	c.Set(ContextUserIDKey, user.ID)
}

// CurrentUser returns the authenticated user, if any, without responding
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentUserID returns the authenticated user's ID or ""
func CurrentUserID(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return ""
}

// GetUserFromContext returns the authenticated user or responds 401
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user := CurrentUser(c)
	if user == nil {
		RespondUnauthorized(c)
		return nil, false
	}
	return user, true
}

// IsAdmin reports whether the caller is an authenticated admin
func IsAdmin(c *gin.Context) bool {
	user := CurrentUser(c)
	return user != nil && user.IsAdmin()
}
