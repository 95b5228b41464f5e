package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize opens the PostgreSQL connection described by dsn and stores it in DB
func Initialize(dsn string, development bool) error {
	db, err := Open(postgres.Open(dsn), development)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Log.Info("✅ Database connected successfully")
	return nil
}

// Open configures gorm for any dialector. Driver errors are translated so
// unique violations surface as gorm.ErrDuplicatedKey. Associations get no
// foreign key constraints: content outlives a deleted author.
func Open(dialector gorm.Dialector, verbose bool) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(logger.Log, verbose),
		TranslateError: true,

		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Models lists every table in migration order
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Blog{},
		&models.Event{},
		&models.EventParticipant{},
		&models.EventPost{},
		&models.Comment{},
		&models.Reaction{},
		&models.ContentReport{},
		&models.Notification{},
		&models.Message{},
		&models.Conversation{},
		&models.Disease{},
		&models.Diet{},
		&models.DietCompletion{},
		&models.Exercise{},
	}
}

// Migrate runs auto-migration for all models on db
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		createIndexes(db)
	}
	logger.Log.Info("✅ Database migrations completed")
	return nil
}

// createIndexes adds PostgreSQL-only indexes that AutoMigrate cannot express
func createIndexes(db *gorm.DB) {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
		"CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",
		"CREATE INDEX IF NOT EXISTS idx_posts_public_created ON posts (is_approved, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_posts_tags ON posts USING GIN (tags)",
		"CREATE INDEX IF NOT EXISTS idx_blogs_tags ON blogs USING GIN (tags)",
		"CREATE INDEX IF NOT EXISTS idx_blogs_published_created ON blogs (is_published, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_posts_reported ON posts (updated_at DESC) WHERE is_reported = true",
		"CREATE INDEX IF NOT EXISTS idx_comments_reported ON comments (updated_at DESC) WHERE is_reported = true",
		"CREATE INDEX IF NOT EXISTS idx_comments_target_created ON comments (target_type, target_id, created_at DESC) WHERE parent_id IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created ON notifications (recipient_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages (conversation_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_events_active_date ON events (date) WHERE status = 'active'",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Log.Warn("Failed to create index", zap.String("statement", stmt), zap.Error(err))
		}
	}
}

// IsDuplicate reports whether err is a unique-constraint violation
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
