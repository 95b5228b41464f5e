package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/moderation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var hashCost = bcrypt.DefaultCost

func findByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func createAdmin(ctx context.Context, db *gorm.DB, email, username, password string) (*models.User, error) {
	if len(password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 30 {
		return nil, errors.New("username must be 3-30 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    username,
		LastName:     "Admin",
		Role:         models.RoleAdmin,
		IsVerified:   true,
		IsActive:     true,
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, errors.New("a user with this email or username already exists")
		}
		return nil, err
	}
	return user, nil
}

// promote grants admin, or with revoke demotes an admin to patient
func promote(ctx context.Context, db *gorm.DB, email string, revoke bool) (*models.User, bool, error) {
	user, err := findByEmail(ctx, db, email)
	if err != nil {
		return nil, false, err
	}
	target := models.RoleAdmin
	if revoke {
		if !user.IsAdmin() {
			return user, false, nil
		}
		target = models.RolePatient
	}
	if user.Role == target {
		return user, false, nil
	}
	user.SetRole(target)
	err = db.WithContext(ctx).Model(user).
		Select("role", "doctor_approval_status", "doctor_approval_date", "doctor_approved_by", "doctor_rejection_reason",
			"doctor_location", "doctor_specialization", "doctor_hospital", "doctor_experience").
		Updates(user).Error
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// approveDoctor approves on behalf of the oldest admin account
func approveDoctor(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	doctor, err := findByEmail(ctx, db, email)
	if err != nil {
		return nil, err
	}
	var admin models.User
	err = db.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("created_at ASC").First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("no admin account exists; run create-admin first")
	}
	if err != nil {
		return nil, err
	}
	return moderation.NewService(db, nil).ApproveDoctor(ctx, doctor.ID, admin.ID)
}
