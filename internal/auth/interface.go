package auth

import (
	"context"

	"github.com/carecircle/backend/internal/models"
)

// AuthServiceInterface is what the HTTP layer needs from authentication
type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	ValidateToken(tokenString string) (*models.User, error)
}

var _ AuthServiceInterface = (*Service)(nil)
