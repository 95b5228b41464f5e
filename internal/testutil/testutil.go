// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a private shared-cache SQLite database with the full schema
// and foreign key enforcement on, as PostgreSQL would have it.
// A single connection serializes access, so code under test must use the
// transaction handle inside transactions.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), false)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts an active user with the given role and password "password123"
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		FirstName:    username,
		LastName:     "Tester",
		Role:         role,
		IsActive:     true,
	}
	if role == models.RoleDoctor {
		user.DoctorInfo.ApprovalStatus = models.ApprovalPending
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateApprovedDoctor inserts a doctor whose approval has already been granted
func CreateApprovedDoctor(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := CreateUser(t, db, username, models.RoleDoctor)
	user.DoctorInfo.ApprovalStatus = models.ApprovalApproved
	require.NoError(t, db.Save(user).Error)
	return user
}

// CreatePost inserts an approved post authored by author
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		AuthorID: author.ID,
		Title:    title,
		Content:  "content for " + title,
		Category: "other",
		Slug:     uuid.NewString(),
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
