// Package moderation owns the like/dislike toggles, content reports, doctor
// approval decisions and the approval gate for doctor-only content.
package moderation

import (
	"github.com/carecircle/backend/internal/notifications"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	notifier notifications.Notifier
}

// NewService wires moderation to db; notifier may be nil
func NewService(db *gorm.DB, notifier notifications.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}
