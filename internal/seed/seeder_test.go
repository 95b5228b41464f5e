package seed

import (
	"context"
	"testing"

	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedDevAndClean(t *testing.T) {
	db := testutil.NewTestDB(t)
	keep := testutil.CreateUser(t, db, "realuser", models.RolePatient)
	ctx := context.Background()

	seeder := NewSeeder(db, bcrypt.MinCost)
	res, err := seeder.SeedDev(ctx, Options{Users: 10, Posts: 12})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Users)
	assert.Equal(t, 12, res.Posts)
	assert.Equal(t, 24, res.Comments)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 12, posts)

	var doctor models.User
	require.NoError(t, db.Where("role = ?", models.RoleDoctor).First(&doctor).Error)
	assert.NotEmpty(t, doctor.DoctorInfo.ApprovalStatus)

	require.NoError(t, seeder.Clean(ctx))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, keep.ID, users[0].ID)

	for _, model := range []interface{}{&models.Post{}, &models.Comment{}, &models.Follow{}, &models.Exercise{}, &models.Diet{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}
