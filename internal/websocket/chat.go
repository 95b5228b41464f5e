package websocket

import (
	"context"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"go.uber.org/zap"
)

// MessageSender persists a direct message and pushes it to the receiver
type MessageSender interface {
	Send(ctx context.Context, senderID, receiverID, content, transport string) (*models.Message, error)
}

const sendTimeout = 5 * time.Second

// RegisterChatHandlers wires inbound send_message frames to sender. The
// sending session gets message_sent with the stored message, or message_error.
func RegisterChatHandlers(hub *Hub, sender MessageSender) {
	hub.Handle(EventSendMessage, func(s *Session, f *Frame) error {
		var in SendMessageData
		if err := f.Bind(&in); err != nil {
			return s.Reply(f, EventMessageError, ErrorData{
				Code:    string(apperrors.ErrValidation),
				Message: "invalid send_message data",
			})
		}

		ctx, cancel := context.WithTimeout(s.Context(), sendTimeout)
		defer cancel()

		stored, err := sender.Send(ctx, s.UserID, in.ReceiverID, in.Content, "websocket")
		if err == nil {
			return s.Reply(f, EventMessageSent, stored)
		}

		out := ErrorData{Code: string(apperrors.ErrInternalError), Message: "failed to send message"}
		if apiErr, ok := apperrors.As(err); ok {
			out = ErrorData{Code: string(apiErr.Code), Message: apiErr.Message}
		} else {
			logger.Log.Error("WebSocket send_message failed", zap.Error(err), logger.WithUserID(s.UserID))
		}
		return s.Reply(f, EventMessageError, out)
	})
}
