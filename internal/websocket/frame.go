package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event names on the wire
const (
	EventConnected = "connected"
	EventPing      = "ping"
	EventPong      = "pong"
	EventError     = "error"
	EventShutdown  = "server_shutdown"

	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventMessageSent    = "message_sent"
	EventMessageError   = "message_error"

	EventNewNotification = "new_notification"
)

var errNoData = errors.New("frame carries no data")

// Frame is one event in either direction. A client may set Ref on an
// inbound frame; the reply to it carries the same Ref.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ref   string          `json:"ref,omitempty"`
	At    time.Time       `json:"at"`
}

func newFrame(event string, data interface{}) (*Frame, error) {
	f := &Frame{Event: event, At: time.Now().UTC()}
	if data == nil {
		return f, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	f.Data = raw
	return f, nil
}

// Bind decodes the frame data into v
func (f *Frame) Bind(v interface{}) error {
	if len(f.Data) == 0 {
		return errNoData
	}
	return json.Unmarshal(f.Data, v)
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendMessageData is the body of an inbound send_message frame
type SendMessageData struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}
