package models

type NotificationType string

const (
	NotifyLikePost     NotificationType = "like_post"
	NotifyLikeComment  NotificationType = "like_comment"
	NotifyCommentPost  NotificationType = "comment_post"
	NotifyReplyComment NotificationType = "reply_comment"
	NotifyFollow       NotificationType = "follow"
)

// Notification is immutable after creation except for IsRead
type Notification struct {
	Base
	RecipientID string           `gorm:"size:36;not null;index:idx_notification_recipient" json:"recipient"`
	SenderID    string           `gorm:"size:36;not null" json:"senderId"`
	Sender      *User            `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        NotificationType `gorm:"size:16;not null" json:"type"`
	PostID      *string          `gorm:"size:36" json:"post,omitempty"`
	CommentID   *string          `gorm:"size:36" json:"comment,omitempty"`
	IsRead      bool             `gorm:"not null;default:false;index:idx_notification_recipient" json:"isRead"`
}

// Conversation is a direct-message thread between exactly two users.
// ParticipantA < ParticipantB and PairKey is "A:B", so each pair maps to one row.
type Conversation struct {
	Base
	PairKey       string   `gorm:"uniqueIndex;size:80;not null" json:"-"`
	ParticipantA  string   `gorm:"size:36;not null;index" json:"participantA"`
	ParticipantB  string   `gorm:"size:36;not null;index" json:"participantB"`
	UnreadA       int      `gorm:"not null;default:0" json:"-"`
	UnreadB       int      `gorm:"not null;default:0" json:"-"`
	LastMessageID *string  `gorm:"size:36" json:"lastMessageId,omitempty"`
	LastMessage   *Message `gorm:"foreignKey:LastMessageID" json:"lastMessage,omitempty"`
}

// Other returns the participant that is not userID
func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// UnreadFor returns the unread counter for a participant
func (c *Conversation) UnreadFor(userID string) int {
	if c.ParticipantA == userID {
		return c.UnreadA
	}
	return c.UnreadB
}

// HasParticipant reports whether userID belongs to the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

type Message struct {
	Base
	ConversationID string `gorm:"size:36;not null;index" json:"conversationId"`
	SenderID       string `gorm:"size:36;not null" json:"senderId"`
	Sender         *User  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID     string `gorm:"size:36;not null;index" json:"receiverId"`
	Content        string `gorm:"size:2000;not null" json:"content"`
	IsRead         bool   `gorm:"not null;default:false" json:"isRead"`
}
