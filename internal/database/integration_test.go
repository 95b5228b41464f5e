//go:build integration

package database_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/events"
	"github.com/carecircle/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("carecircle"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(ctr)
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(postgres.Open(dsn), false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestPostgresSchemaAndConstraints(t *testing.T) {
	db := startPostgres(t)

	for _, model := range database.Models() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}
	assert.True(t, db.Migrator().HasIndex("posts", "idx_posts_tags"))

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", FirstName: "A", LastName: "L"}
	require.NoError(t, db.Create(user).Error)

	dup := &models.User{Username: "alice", Email: "alice2@example.com", PasswordHash: "x", FirstName: "A", LastName: "L"}
	err := db.Create(dup).Error
	require.Error(t, err)
	assert.True(t, database.IsDuplicate(err))

	post := &models.Post{
		AuthorID: user.ID,
		Title:    "Arrays",
		Content:  "tags survive a round trip",
		Category: "other",
		Tags:     models.StringList{"insulin", "type-2"},
		Slug:     "arrays",
	}
	require.NoError(t, db.Create(post).Error)

	var stored models.Post
	require.NoError(t, db.First(&stored, "id = ?", post.ID).Error)
	assert.Equal(t, models.StringList{"insulin", "type-2"}, stored.Tags)

	// deleting an author leaves their content in place
	require.NoError(t, db.Delete(user).Error)
	require.NoError(t, db.First(&stored, "id = ?", post.ID).Error)
}

func TestConcurrentRegistrationKeepsCountDerived(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	author := &models.User{Username: "organizer", Email: "org@example.com", PasswordHash: "x", FirstName: "O", LastName: "R", Role: models.RoleAdmin}
	require.NoError(t, db.Create(author).Error)

	event := &models.Event{
		Title:           "Breathing workshop",
		Description:     "Guided breathing for asthma patients",
		Category:        "exercise",
		Instructor:      "Dr. Lung",
		Date:            time.Now().Add(48 * time.Hour),
		Location:        "Room 1",
		MaxParticipants: 5,
		Organizer:       "City Hospital",
		Status:          models.EventActive,
		AuthorID:        author.ID,
	}
	require.NoError(t, db.Create(event).Error)

	users := make([]*models.User, 12)
	for i := range users {
		users[i] = &models.User{
			Username:     fmt.Sprintf("patient%d", i),
			Email:        fmt.Sprintf("patient%d@example.com", i),
			PasswordHash: "x",
			FirstName:    "P",
			LastName:     "T",
		}
		require.NoError(t, db.Create(users[i]).Error)
	}

	svc := events.NewService(db)
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, _, _ = svc.Register(ctx, event.ID, userID, "")
		}(u.ID)
	}
	wg.Wait()

	var confirmed int64
	require.NoError(t, db.Model(&models.EventParticipant{}).
		Where("event_id = ? AND status = ?", event.ID, models.ParticipantConfirmed).
		Count(&confirmed).Error)
	assert.GreaterOrEqual(t, confirmed, int64(event.MaxParticipants))

	// any later save recomputes the counter from the rows
	var reloaded models.Event
	require.NoError(t, db.First(&reloaded, "id = ?", event.ID).Error)
	require.NoError(t, db.Omit("Author", "Participants").Save(&reloaded).Error)
	assert.EqualValues(t, confirmed, reloaded.CurrentParticipants)
}
