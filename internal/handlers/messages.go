package handlers

import (
	"github.com/carecircle/backend/internal/dto"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// SendMessage delivers a direct message over REST
// POST /api/v1/messages/send {receiverId, content}
func (h *Handlers) SendMessage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req struct {
		ReceiverID string `json:"receiverId" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	msg, err := h.messaging.Send(c.Request.Context(), user.ID, req.ReceiverID, req.Content, "http")
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if msg.Sender == nil {
		msg.Sender = user
	}
	util.RespondCreated(c, "message sent", gin.H{"message": dto.ToMessageResponse(msg)})
}

// ListConversations returns the caller's inbox
// GET /api/v1/messages/conversations
func (h *Handlers) ListConversations(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	summaries, err := h.messaging.Conversations(c.Request.Context(), user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	conversations := make([]gin.H, len(summaries))
	for i, s := range summaries {
		conversations[i] = gin.H{
			"id":          s.ID,
			"otherUser":   dto.ToAuthor(s.OtherUser, false, user),
			"lastMessage": s.LastMessage,
			"unreadCount": s.UnreadCount,
			"updatedAt":   s.UpdatedAt,
		}
	}
	unread, err := h.messaging.UnreadTotal(c.Request.Context(), user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "conversations", gin.H{
		"conversations": conversations,
		"unreadTotal":   unread,
	})
}

// GetConversation returns a conversation's messages oldest first and marks
// them read for the caller
// GET /api/v1/messages/:id
func (h *Handlers) GetConversation(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	page := util.PageFromQueryWithDefault(c, 50)
	messages, err := h.messaging.Messages(c.Request.Context(), user.ID, c.Param("id"), page.Offset(), page.Limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	list := make([]*dto.MessageResponse, len(messages))
	for i := range messages {
		list[i] = dto.ToMessageResponse(&messages[i])
	}
	util.RespondOK(c, "messages", gin.H{"messages": list})
}
