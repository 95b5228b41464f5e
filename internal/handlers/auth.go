package handlers

import (
	"github.com/carecircle/backend/internal/auth"
	"github.com/carecircle/backend/internal/dto"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
)

func authPayload(resp *auth.AuthResponse) gin.H {
	return gin.H{
		"user":         dto.ToUserDetailResponse(&resp.User),
		"token":        resp.Token,
		"refreshToken": resp.RefreshToken,
		"expiresAt":    resp.ExpiresAt,
	}
}

// Register creates a patient or doctor account
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondCreated(c, "registration successful", authPayload(resp))
}

// Login exchanges credentials for an access and refresh token
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "login successful", authPayload(resp))
}

// RefreshToken issues a new token pair from a refresh token
// POST /api/v1/auth/refresh
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	resp, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "token refreshed", authPayload(resp))
}

// GetProfile returns the caller's own account
// GET /api/v1/auth/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	userID := util.CurrentUserID(c)
	if userID == "" {
		util.RespondUnauthorized(c)
		return
	}
	user, err := h.auth.Profile(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "profile", gin.H{"user": dto.ToUserDetailResponse(user)})
}

// Logout is stateless; clients discard their tokens
// POST /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	util.RespondOK(c, "logged out", nil)
}
