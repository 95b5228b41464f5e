package notifications

import (
	"context"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/models"
	"gorm.io/gorm"
)

// Service reads and updates a recipient's notifications
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type ListResult struct {
	Notifications []models.Notification
	Total         int64
	UnreadCount   int64
}

// List returns the recipient's notifications newest first
func (s *Service) List(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) (*ListResult, error) {
	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
		if unreadOnly {
			query = query.Where("is_read = ?", false)
		}
		return query
	}

	var result ListResult
	if err := scoped().Count(&result.Total).Error; err != nil {
		return nil, err
	}
	err := scoped().Preload("Sender").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&result.Notifications).Error
	if err != nil {
		return nil, err
	}

	result.UnreadCount, err = s.UnreadCount(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read; only its recipient may do so
func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, "id = ?", notificationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("notification")
		}
		return nil, err
	}
	if n.RecipientID != recipientID {
		return nil, apperrors.Forbidden("not your notification")
	}
	if !n.IsRead {
		if err := s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the recipient read
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
