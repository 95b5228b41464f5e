package database_test

import (
	"testing"

	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesAllTables(t *testing.T) {
	db := testutil.NewTestDB(t)
	for _, model := range database.Models() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}
}

func TestIsDuplicateOnUniqueViolation(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "alice", models.RolePatient)

	dup := &models.User{
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "x",
		FirstName:    "A",
		LastName:     "B",
		Role:         models.RolePatient,
	}
	err := db.Create(dup).Error
	require.Error(t, err)
	assert.True(t, database.IsDuplicate(err))
	assert.False(t, database.IsDuplicate(nil))
}

func TestHealthWithoutConnection(t *testing.T) {
	saved := database.DB
	database.DB = nil
	defer func() { database.DB = saved }()
	assert.Error(t, database.Health())
}
