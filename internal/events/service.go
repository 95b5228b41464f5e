// Package events implements event registration against capacity and the
// admin approve/reject lifecycle.
package events

import (
	"context"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/carecircle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func loadEvent(tx *gorm.DB, eventID string) (*models.Event, error) {
	var event models.Event
	if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("event")
		}
		return nil, err
	}
	return &event, nil
}

// Register confirms userID's place on an active event with spare capacity.
// The capacity check is read-then-write; concurrent registrations may
// transiently overshoot and CurrentParticipants reflects the true count.
func (s *Service) Register(ctx context.Context, eventID, userID, notes string) (*models.Event, *models.EventParticipant, error) {
	var (
		event       *models.Event
		participant models.EventParticipant
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = loadEvent(tx, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventActive {
			return apperrors.EventNotActive()
		}
		if event.IsFull() {
			return apperrors.EventFull()
		}

		res := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Limit(1).Find(&participant)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 && participant.Status == models.ParticipantConfirmed {
			return apperrors.AlreadyRegistered()
		}

		if res.RowsAffected > 0 {
			// a cancelled or pending row is reused: one row per (event, user)
			participant.Status = models.ParticipantConfirmed
			participant.Notes = notes
			if err := tx.Save(&participant).Error; err != nil {
				return err
			}
		} else {
			participant = models.EventParticipant{
				EventID: eventID,
				UserID:  userID,
				Status:  models.ParticipantConfirmed,
				Notes:   notes,
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
		}
		return tx.Save(event).Error
	})
	if err != nil {
		metrics.RecordEventRegistration("register", outcome(err))
		return nil, nil, err
	}

	metrics.RecordEventRegistration("register", "ok")
	logger.Log.Info("Event registration",
		logger.WithEventID(eventID),
		logger.WithUserID(userID),
		zap.Int("current_participants", event.CurrentParticipants),
	)
	return event, &participant, nil
}

// Unregister removes userID's confirmed participation row
func (s *Service) Unregister(ctx context.Context, eventID, userID string) (*models.Event, error) {
	var event *models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = loadEvent(tx, eventID)
		if err != nil {
			return err
		}

		res := tx.Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, models.ParticipantConfirmed).
			Delete(&models.EventParticipant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotRegistered()
		}
		return tx.Save(event).Error
	})
	if err != nil {
		metrics.RecordEventRegistration("unregister", outcome(err))
		return nil, err
	}
	metrics.RecordEventRegistration("unregister", "ok")
	return event, nil
}

// IsRegistered reports whether userID holds a confirmed row
func (s *Service) IsRegistered(ctx context.Context, eventID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, models.ParticipantConfirmed).
		Count(&n).Error
	return n > 0, err
}

// Decision is an admin verdict on a pending event
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Decide applies an admin decision: approve moves the event to active,
// reject moves it to rejected with a reason.
func (s *Service) Decide(ctx context.Context, eventID, adminID string, decision Decision, reason string) (*models.Event, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, apperrors.ValidationError("action", "action must be approve or reject")
	}

	var event *models.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		event, err = loadEvent(tx, eventID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		event.ApprovedBy = &adminID
		event.ApprovedAt = &now
		if decision == DecisionApprove {
			if event.Status == models.EventActive {
				return apperrors.Conflict("event is already active")
			}
			event.Status = models.EventActive
			event.RejectionReason = ""
		} else {
			if event.Status == models.EventRejected {
				return apperrors.Conflict("event is already rejected")
			}
			if reason == "" {
				reason = "No reason provided"
			}
			event.Status = models.EventRejected
			event.RejectionReason = reason
		}
		return tx.Save(event).Error
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Event decision",
		logger.WithEventID(eventID),
		zap.String("decision", string(decision)),
		zap.String("admin_id", adminID),
	)
	return event, nil
}

// Participants lists an event's participants, optionally filtered by status
func (s *Service) Participants(ctx context.Context, eventID string, status models.ParticipantStatus, offset, limit int) ([]models.EventParticipant, int64, error) {
	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.EventParticipant{}).Where("event_id = ?", eventID)
		if status != "" {
			query = query.Where("status = ?", status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var participants []models.EventParticipant
	err := scoped().Preload("User").Order("created_at ASC").Offset(offset).Limit(limit).Find(&participants).Error
	return participants, total, err
}

func outcome(err error) string {
	if apiErr, ok := apperrors.As(err); ok {
		return string(apiErr.Code)
	}
	return "error"
}
