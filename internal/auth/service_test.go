package auth

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testSecret = []byte("test_jwt_secret_key")

type AuthServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	db          *gorm.DB
	authService *Service
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.authService = NewService(s.db, testSecret, time.Hour, 2*time.Hour).WithHashCost(bcrypt.MinCost)
}

func (s *AuthServiceTestSuite) register(username string, role models.Role) *AuthResponse {
	resp, err := s.authService.Register(s.ctx, RegisterRequest{
		Username:  username,
		Email:     username + "@Example.com",
		Password:  "secret1",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	})
	s.Require().NoError(err)
	return resp
}

func (s *AuthServiceTestSuite) TestRegisterPatient() {
	resp := s.register("patient1", "")

	s.NotEmpty(resp.Token)
	s.NotEmpty(resp.RefreshToken)
	s.Equal(models.RolePatient, resp.User.Role)
	s.Equal("patient1@example.com", resp.User.Email)
	s.Empty(resp.User.DoctorInfo.ApprovalStatus)
	s.NotEqual("secret1", resp.User.PasswordHash)
}

func (s *AuthServiceTestSuite) TestRegisterDoctorStartsPending() {
	resp, err := s.authService.Register(s.ctx, RegisterRequest{
		Username:   "drsmith",
		Email:      "drsmith@example.com",
		Password:   "secret1",
		FirstName:  "Ann",
		LastName:   "Smith",
		Role:       models.RoleDoctor,
		DoctorInfo: &DoctorInfoInput{Specialization: "cardiology", Experience: 12},
	})
	s.Require().NoError(err)
	s.Equal(models.ApprovalPending, resp.User.DoctorInfo.ApprovalStatus)
	s.Equal("cardiology", resp.User.DoctorInfo.Specialization)
}

func (s *AuthServiceTestSuite) TestRegisterRejectsDuplicatesAndBadInput() {
	s.register("taken", "")

	_, err := s.authService.Register(s.ctx, RegisterRequest{
		Username: "other", Email: "TAKEN@example.com", Password: "secret1", FirstName: "a", LastName: "b",
	})
	s.True(apperrors.HasCode(err, apperrors.ErrConflict))

	_, err = s.authService.Register(s.ctx, RegisterRequest{
		Username: "Taken", Email: "fresh@example.com", Password: "secret1", FirstName: "a", LastName: "b",
	})
	s.True(apperrors.HasCode(err, apperrors.ErrConflict))

	_, err = s.authService.Register(s.ctx, RegisterRequest{
		Username: "shorty", Email: "shorty@example.com", Password: "12345", FirstName: "a", LastName: "b",
	})
	s.True(apperrors.HasCode(err, apperrors.ErrValidation))

	_, err = s.authService.Register(s.ctx, RegisterRequest{
		Username: "sneaky", Email: "sneaky@example.com", Password: "secret1", FirstName: "a", LastName: "b", Role: models.RoleAdmin,
	})
	s.True(apperrors.HasCode(err, apperrors.ErrValidation))
}

func (s *AuthServiceTestSuite) TestLogin() {
	s.register("loginuser", "")

	resp, err := s.authService.Login(s.ctx, LoginRequest{Email: "LOGINUSER@example.com", Password: "secret1"})
	s.Require().NoError(err)
	s.NotNil(resp.User.LastLogin)

	var stored models.User
	s.Require().NoError(s.db.First(&stored, "id = ?", resp.User.ID).Error)
	s.NotNil(stored.LastLogin)

	_, err = s.authService.Login(s.ctx, LoginRequest{Email: "loginuser@example.com", Password: "wrong"})
	s.True(apperrors.HasCode(err, apperrors.ErrUnauthorized))

	_, err = s.authService.Login(s.ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	s.True(apperrors.HasCode(err, apperrors.ErrUnauthorized))
}

func (s *AuthServiceTestSuite) TestDeactivatedUserCannotAuthenticate() {
	resp := s.register("inactive", "")
	s.Require().NoError(s.db.Model(&models.User{}).Where("id = ?", resp.User.ID).Update("is_active", false).Error)

	_, err := s.authService.Login(s.ctx, LoginRequest{Email: "inactive@example.com", Password: "secret1"})
	s.True(apperrors.HasCode(err, apperrors.ErrUnauthorized))

	_, err = s.authService.ValidateToken(resp.Token)
	s.True(apperrors.HasCode(err, apperrors.ErrUnauthorized))
}

func (s *AuthServiceTestSuite) TestValidateToken() {
	resp := s.register("tokenuser", "")

	user, err := s.authService.ValidateToken(resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, user.ID)

	_, err = s.authService.ValidateToken(resp.RefreshToken)
	s.ErrorIs(err, ErrWrongTokenType)

	_, err = s.authService.ValidateToken("not-a-token")
	s.ErrorIs(err, ErrInvalidToken)

	other := NewService(s.db, []byte("different-secret"), time.Hour, time.Hour)
	_, err = other.ValidateToken(resp.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestExpiredTokenRejected() {
	resp := s.register("expired", "")

	claims := jwt.MapClaims{
		"user_id": resp.User.ID,
		"type":    tokenTypeAccess,
		"exp":     time.Now().Add(-time.Minute).Unix(),
		"iat":     time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	s.Require().NoError(err)

	_, err = s.authService.ValidateToken(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestRefresh() {
	resp := s.register("refresher", "")

	refreshed, err := s.authService.Refresh(s.ctx, resp.RefreshToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, refreshed.User.ID)
	s.NotEmpty(refreshed.Token)

	_, err = s.authService.Refresh(s.ctx, resp.Token)
	s.True(apperrors.HasCode(err, apperrors.ErrUnauthorized))
}

func (s *AuthServiceTestSuite) TestProfile() {
	resp := s.register("profiled", "")

	user, err := s.authService.Profile(s.ctx, resp.User.ID)
	s.Require().NoError(err)
	s.Equal("profiled", user.Username)

	_, err = s.authService.Profile(s.ctx, "missing")
	s.True(apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
