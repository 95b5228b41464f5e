package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	minPasswordLength = 6
)

// Service handles registration, login and token issuance
type Service struct {
	db         *gorm.DB
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	hashCost   int
}

// NewService creates the authentication service. Zero TTLs fall back to 24h
// access and 7d refresh.
func NewService(db *gorm.DB, jwtSecret []byte, accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Service{
		db:         db,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		hashCost:   bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         models.User `json:"user"`
	ExpiresAt    time.Time   `json:"expiresAt"`
}

// DoctorInfoInput is the doctor profile supplied at registration
type DoctorInfoInput struct {
	Location       string `json:"location"`
	Specialization string `json:"specialization"`
	Hospital       string `json:"hospital"`
	Experience     int    `json:"experience"`
}

type RegisterRequest struct {
	Username   string           `json:"username" binding:"required,min=3,max=30"`
	Email      string           `json:"email" binding:"required,email"`
	Password   string           `json:"password" binding:"required"`
	FirstName  string           `json:"firstName" binding:"required,max=50"`
	LastName   string           `json:"lastName" binding:"required,max=50"`
	Role       models.Role      `json:"role"`
	DoctorInfo *DoctorInfoInput `json:"doctorInfo"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a patient or doctor account. Doctors start pending approval.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if len(req.Password) < minPasswordLength {
		return nil, apperrors.ValidationError("password", "password must be at least 6 characters")
	}
	role := req.Role
	if role == "" {
		role = models.RolePatient
	}
	if role != models.RolePatient && role != models.RoleDoctor {
		return nil, apperrors.ValidationError("role", "role must be patient or doctor")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR LOWER(username) = LOWER(?)", email, username).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing > 0 {
		return nil, apperrors.Conflict("user with this email or username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		IsActive:     true,
	}
	if role == models.RoleDoctor {
		user.DoctorInfo.ApprovalStatus = models.ApprovalPending
		if req.DoctorInfo != nil {
			user.DoctorInfo.Location = req.DoctorInfo.Location
			user.DoctorInfo.Specialization = req.DoctorInfo.Specialization
			user.DoctorInfo.Hospital = req.DoctorInfo.Hospital
			user.DoctorInfo.Experience = req.DoctorInfo.Experience
		}
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("user with this email or username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Log.Info("User registered", logger.WithUserID(user.ID), zap.String("role", string(user.Role)))
	return s.issue(&user)
}

// Login verifies credentials and stamps lastLogin
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Unauthorized("invalid credentials")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		logger.Log.Warn("Failed to stamp last login", zap.Error(err), logger.WithUserID(user.ID))
	}

	return s.issue(&user)
}

// Refresh exchanges a refresh token for a new token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Profile loads the current user
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// ValidateToken resolves an access token to its active user
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	userID, err := s.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return s.activeUser(context.Background(), userID)
}

func (s *Service) activeUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Unauthorized("user not found")
	} else if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}
	return &user, nil
}

// HashPassword hashes a password with the service cost
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) issue(user *models.User) (*AuthResponse, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	access, err := s.sign(user, tokenTypeAccess, now, expiresAt)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, tokenTypeRefresh, now, now.Add(s.refreshTTL))
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:        access,
		RefreshToken: refresh,
		User:         *user,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) sign(user *models.User, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"type":    tokenType,
		"exp":     expiresAt.Unix(),
		"iat":     issuedAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parse validates signature, expiry and token type, returning the user ID
func (s *Service) parse(tokenString, wantType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != wantType {
		return "", ErrWrongTokenType
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}
