package events

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type EventsTestSuite struct {
	suite.Suite
	ctx   context.Context
	db    *gorm.DB
	svc   *Service
	admin *models.User
	users []*models.User
}

func (s *EventsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.svc = NewService(s.db)
	s.admin = testutil.CreateUser(s.T(), s.db, "admin", models.RoleAdmin)
	s.users = nil
	for _, name := range []string{"u1", "u2", "u3"} {
		s.users = append(s.users, testutil.CreateUser(s.T(), s.db, name, models.RolePatient))
	}
}

func (s *EventsTestSuite) createEvent(status models.EventStatus, max int) *models.Event {
	event := &models.Event{
		Title:           "Breathing workshop",
		Description:     "Learn breathing",
		Category:        "meditation",
		Instructor:      "Ana",
		Date:            time.Now().Add(24 * time.Hour),
		Location:        "Online",
		MaxParticipants: max,
		Organizer:       "CareCircle",
		Status:          status,
		AuthorID:        s.admin.ID,
	}
	s.Require().NoError(s.db.Create(event).Error)
	return event
}

func (s *EventsTestSuite) TestRegisterUntilFull() {
	event := s.createEvent(models.EventActive, 2)

	got, _, err := s.svc.Register(s.ctx, event.ID, s.users[0].ID, "first")
	s.Require().NoError(err)
	s.Equal(1, got.CurrentParticipants)

	_, _, err = s.svc.Register(s.ctx, event.ID, s.users[0].ID, "")
	s.True(apperrors.HasCode(err, apperrors.ErrAlreadyRegistered))

	got, _, err = s.svc.Register(s.ctx, event.ID, s.users[1].ID, "")
	s.Require().NoError(err)
	s.Equal(2, got.CurrentParticipants)

	_, _, err = s.svc.Register(s.ctx, event.ID, s.users[2].ID, "")
	s.True(apperrors.HasCode(err, apperrors.ErrEventFull))

	var reloaded models.Event
	s.Require().NoError(s.db.First(&reloaded, "id = ?", event.ID).Error)
	s.Equal(2, reloaded.CurrentParticipants)
}

func (s *EventsTestSuite) TestRegisterRequiresActive() {
	event := s.createEvent(models.EventPending, 5)
	_, _, err := s.svc.Register(s.ctx, event.ID, s.users[0].ID, "")
	s.True(apperrors.HasCode(err, apperrors.ErrEventNotActive))

	_, _, err = s.svc.Register(s.ctx, "missing", s.users[0].ID, "")
	s.True(apperrors.HasCode(err, apperrors.ErrNotFound))
}

func (s *EventsTestSuite) TestUnregisterRemovesRow() {
	event := s.createEvent(models.EventActive, 1)

	_, err := s.svc.Unregister(s.ctx, event.ID, s.users[0].ID)
	s.True(apperrors.HasCode(err, apperrors.ErrNotRegistered))

	_, _, err = s.svc.Register(s.ctx, event.ID, s.users[0].ID, "")
	s.Require().NoError(err)

	got, err := s.svc.Unregister(s.ctx, event.ID, s.users[0].ID)
	s.Require().NoError(err)
	s.Equal(0, got.CurrentParticipants)

	var rows int64
	s.Require().NoError(s.db.Model(&models.EventParticipant{}).Where("event_id = ?", event.ID).Count(&rows).Error)
	s.Equal(int64(0), rows)

	// freed capacity is usable again
	_, _, err = s.svc.Register(s.ctx, event.ID, s.users[1].ID, "")
	s.NoError(err)
}

func (s *EventsTestSuite) TestCancelledRowIsReused() {
	event := s.createEvent(models.EventActive, 3)
	s.Require().NoError(s.db.Create(&models.EventParticipant{EventID: event.ID, UserID: s.users[0].ID, Status: models.ParticipantCancelled}).Error)

	got, participant, err := s.svc.Register(s.ctx, event.ID, s.users[0].ID, "back again")
	s.Require().NoError(err)
	s.Equal(models.ParticipantConfirmed, participant.Status)
	s.Equal(1, got.CurrentParticipants)

	registered, err := s.svc.IsRegistered(s.ctx, event.ID, s.users[0].ID)
	s.Require().NoError(err)
	s.True(registered)
}

func (s *EventsTestSuite) TestDecide() {
	event := s.createEvent(models.EventPending, 3)

	_, err := s.svc.Decide(s.ctx, event.ID, s.admin.ID, "maybe", "")
	s.True(apperrors.HasCode(err, apperrors.ErrValidation))

	got, err := s.svc.Decide(s.ctx, event.ID, s.admin.ID, DecisionReject, "")
	s.Require().NoError(err)
	s.Equal(models.EventRejected, got.Status)
	s.NotEmpty(got.RejectionReason)

	got, err = s.svc.Decide(s.ctx, event.ID, s.admin.ID, DecisionApprove, "")
	s.Require().NoError(err)
	s.Equal(models.EventActive, got.Status)
	s.Empty(got.RejectionReason)
	s.Require().NotNil(got.ApprovedBy)

	_, err = s.svc.Decide(s.ctx, event.ID, s.admin.ID, DecisionApprove, "")
	s.True(apperrors.HasCode(err, apperrors.ErrConflict))
}

func (s *EventsTestSuite) TestParticipantsFilter() {
	event := s.createEvent(models.EventActive, 5)
	for _, u := range s.users[:2] {
		_, _, err := s.svc.Register(s.ctx, event.ID, u.ID, "")
		s.Require().NoError(err)
	}
	s.Require().NoError(s.db.Create(&models.EventParticipant{EventID: event.ID, UserID: s.users[2].ID, Status: models.ParticipantPending}).Error)

	all, total, err := s.svc.Participants(s.ctx, event.ID, "", 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(all, 3)

	confirmed, total, err := s.svc.Participants(s.ctx, event.ID, models.ParticipantConfirmed, 0, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.NotNil(confirmed[0].User)
}

func TestEventsTestSuite(t *testing.T) {
	suite.Run(t, new(EventsTestSuite))
}
