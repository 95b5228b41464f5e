// Package messaging implements one-to-one direct messages.
package messaging

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/notifications"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventReceiveMessage is pushed to the receiver of a new message
const EventReceiveMessage = "receive_message"

const maxContentLength = 2000

type Service struct {
	db      *gorm.DB
	emitter notifications.Emitter
}

// NewService creates the messaging service; emitter may be nil
func NewService(db *gorm.DB, emitter notifications.Emitter) *Service {
	return &Service{db: db, emitter: emitter}
}

// SetEmitter attaches the real-time channel after construction
func (s *Service) SetEmitter(emitter notifications.Emitter) {
	s.emitter = emitter
}

// PairKey returns the canonical key for a pair of users, independent of order
func PairKey(a, b string) (string, string, string) {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1], ids[0], ids[1]
}

// Send persists a message from senderID to receiverID and pushes it to the
// receiver. transport labels the metrics ("http" or "websocket").
func (s *Service) Send(ctx context.Context, senderID, receiverID, content, transport string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if receiverID == "" {
		return nil, apperrors.ValidationError("receiverId", "receiverId is required")
	}
	if content == "" {
		return nil, apperrors.ValidationError("content", "content is required")
	}
	if len([]rune(content)) > maxContentLength {
		return nil, apperrors.ValidationError("content", "content must be at most 2000 characters")
	}
	if receiverID == senderID {
		return nil, apperrors.BadRequest("cannot send a message to yourself")
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receiver models.User
		if err := tx.Select("id").First(&receiver, "id = ?", receiverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("receiver")
			}
			return err
		}

		conversation, err := findOrCreateConversation(tx, senderID, receiverID)
		if err != nil {
			return err
		}

		message.ConversationID = conversation.ID
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		unreadColumn := "unread_b"
		if conversation.ParticipantA == receiverID {
			unreadColumn = "unread_a"
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conversation.ID).Updates(map[string]interface{}{
			"last_message_id": message.ID,
			unreadColumn:      gorm.Expr(unreadColumn + " + 1"),
			"updated_at":      time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Sender").First(message, "id = ?", message.ID).Error; err != nil {
		return nil, err
	}
	metrics.RecordMessageSent(transport)

	if s.emitter != nil {
		if err := s.emitter.EmitToUser(receiverID, EventReceiveMessage, message); err != nil {
			logger.Log.Warn("Failed to push message", zap.Error(err), logger.WithUserID(receiverID))
		}
	}
	return message, nil
}

func findOrCreateConversation(tx *gorm.DB, a, b string) (*models.Conversation, error) {
	key, first, second := PairKey(a, b)

	conversation := &models.Conversation{PairKey: key, ParticipantA: first, ParticipantB: second}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(conversation).Error; err != nil {
		return nil, err
	}

	var existing models.Conversation
	if err := tx.First(&existing, "pair_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// ConversationSummary is one row of a user's inbox
type ConversationSummary struct {
	ID          string          `json:"id"`
	OtherUser   *models.User    `json:"otherUser"`
	LastMessage *models.Message `json:"lastMessage,omitempty"`
	UnreadCount int             `json:"unreadCount"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Conversations lists userID's conversations, most recently active first
func (s *Service) Conversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	var conversations []models.Conversation
	err := s.db.WithContext(ctx).
		Preload("LastMessage").
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	otherIDs := make([]string, 0, len(conversations))
	for i := range conversations {
		otherIDs = append(otherIDs, conversations[i].Other(userID))
	}
	users := make(map[string]*models.User, len(otherIDs))
	if len(otherIDs) > 0 {
		var found []models.User
		if err := s.db.WithContext(ctx).Where("id IN ?", otherIDs).Find(&found).Error; err != nil {
			return nil, err
		}
		for i := range found {
			users[found[i].ID] = &found[i]
		}
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for i := range conversations {
		c := &conversations[i]
		summaries = append(summaries, ConversationSummary{
			ID:          c.ID,
			OtherUser:   users[c.Other(userID)],
			LastMessage: c.LastMessage,
			UnreadCount: c.UnreadFor(userID),
			UpdatedAt:   c.UpdatedAt,
		})
	}
	return summaries, nil
}

// Messages returns a conversation oldest first and marks it read for userID
func (s *Service) Messages(ctx context.Context, userID, conversationID string, offset, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conversation models.Conversation
		if err := tx.First(&conversation, "id = ?", conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("conversation")
			}
			return err
		}
		if !conversation.HasParticipant(userID) {
			return apperrors.Forbidden("not a participant in this conversation")
		}

		query := tx.Preload("Sender").Where("conversation_id = ?", conversationID).Order("created_at ASC")
		if limit > 0 {
			query = query.Offset(offset).Limit(limit)
		}
		if err := query.Find(&messages).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, userID, false).
			Update("is_read", true).Error; err != nil {
			return err
		}
		unreadColumn := "unread_b"
		if conversation.ParticipantA == userID {
			unreadColumn = "unread_a"
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conversationID).UpdateColumn(unreadColumn, 0).Error
	})
	if err != nil {
		return nil, err
	}
	for i := range messages {
		if messages[i].ReceiverID == userID {
			messages[i].IsRead = true
		}
	}
	return messages, nil
}

// UnreadTotal sums userID's unread counters across conversations
func (s *Service) UnreadTotal(ctx context.Context, userID string) (int64, error) {
	var total struct{ N int64 }
	err := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Select("COALESCE(SUM(CASE WHEN participant_a = ? THEN unread_a ELSE unread_b END), 0) AS n", userID).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Scan(&total).Error
	return total.N, err
}
