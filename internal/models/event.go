package models

import (
	"time"

	"gorm.io/gorm"
)

type EventStatus string

const (
	EventPending   EventStatus = "pending"
	EventActive    EventStatus = "active"
	EventFull      EventStatus = "full"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
	EventRejected  EventStatus = "rejected"
)

type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantCancelled ParticipantStatus = "cancelled"
)

var EventCategories = []string{
	"meditation", "yoga", "nutrition", "exercise", "psychology",
	"medicine", "alternative-medicine", "health-technology", "other",
}

var OrganizerTypes = []string{"government", "private", "ngo", "individual", "hospital", "university"}

// Event is a capacity-bounded workshop or meetup
type Event struct {
	Base
	Title           string     `gorm:"size:200;not null" json:"title"`
	Description     string     `gorm:"size:2000;not null" json:"description"`
	Category        string     `gorm:"size:32;not null;index" json:"category"`
	Instructor      string     `gorm:"size:100;not null" json:"instructor"`
	InstructorTitle string     `gorm:"size:100" json:"instructorTitle"`
	Date            time.Time  `gorm:"not null;index" json:"date"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Location        string     `gorm:"size:200;not null" json:"location"`
	LocationAddress string     `gorm:"size:300" json:"locationAddress"`
	MaxParticipants int        `gorm:"not null" json:"maxParticipants"`
	// CurrentParticipants is recomputed from confirmed participants on every save
	CurrentParticipants int         `gorm:"not null;default:0" json:"currentParticipants"`
	Price               float64     `gorm:"not null;default:0" json:"price"`
	IsOnline            bool        `gorm:"not null;default:false" json:"isOnline"`
	Organizer           string      `gorm:"size:200;not null" json:"organizer"`
	OrganizerType       string      `gorm:"size:16;not null;default:individual" json:"organizerType"`
	Tags                StringList  `json:"tags"`
	Requirements        string      `gorm:"size:500" json:"requirements"`
	Image               string      `json:"image"`
	Status              EventStatus `gorm:"size:16;not null;default:pending;index" json:"status"`

	AuthorID        string     `gorm:"size:36;not null;index" json:"authorId"`
	Author          *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ApprovedBy      *string    `gorm:"size:36" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `gorm:"size:500" json:"rejectionReason,omitempty"`

	Participants []EventParticipant `gorm:"foreignKey:EventID" json:"participants,omitempty"`

	IsReported  bool `gorm:"not null;default:false" json:"isReported"`
	ReportCount int  `gorm:"not null;default:0" json:"reportCount"`
}

// IsFull reports whether confirmed participants have reached capacity
func (e *Event) IsFull() bool {
	return e.CurrentParticipants >= e.MaxParticipants
}

// BeforeSave derives CurrentParticipants from the confirmed participant rows
func (e *Event) BeforeSave(tx *gorm.DB) error {
	if e.ID == "" {
		e.CurrentParticipants = 0
		return nil
	}

	var confirmed int64
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&EventParticipant{}).
		Where("event_id = ? AND status = ?", e.ID, ParticipantConfirmed).
		Count(&confirmed).Error
	if err != nil {
		return err
	}
	e.CurrentParticipants = int(confirmed)
	return nil
}

type EventParticipant struct {
	Base
	EventID string            `gorm:"size:36;not null;uniqueIndex:idx_event_participant" json:"eventId"`
	UserID  string            `gorm:"size:36;not null;uniqueIndex:idx_event_participant;index" json:"userId"`
	User    *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status  ParticipantStatus `gorm:"size:16;not null;default:confirmed" json:"status"`
	Notes   string            `gorm:"size:500" json:"notes"`
}
