package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 45 * time.Second
	flushTimeout = 2 * time.Second
	maxFrameSize = 64 * 1024
	outboxSize   = 64
)

var errSessionClosed = errors.New("websocket session closed")

// Session is one authenticated connection. Frames queued on it are written
// by a single writer goroutine; a session whose outbox fills up is dropped.
type Session struct {
	hub  *Hub
	conn *websocket.Conn

	UserID      string
	Username    string
	RemoteAddr  string
	ConnectedAt time.Time

	out    chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce   sync.Once
	closeCode   websocket.StatusCode
	closeReason string
}

func newSession(hub *Hub, conn *websocket.Conn, user *models.User, remoteAddr string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		hub:         hub,
		conn:        conn,
		UserID:      user.ID,
		Username:    user.Username,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		out:         make(chan []byte, outboxSize),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Context ends when the session disconnects
func (s *Session) Context() context.Context {
	return s.ctx
}

// Emit queues an event for this session only
func (s *Session) Emit(event string, payload interface{}) error {
	f, err := newFrame(event, payload)
	if err != nil {
		return err
	}
	return s.queue(f)
}

// Reply queues an event answering the inbound frame to
func (s *Session) Reply(to *Frame, event string, payload interface{}) error {
	f, err := newFrame(event, payload)
	if err != nil {
		return err
	}
	f.Ref = to.Ref
	return s.queue(f)
}

func (s *Session) queue(f *Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if !s.enqueue(data) {
		return errSessionClosed
	}
	return nil
}

func (s *Session) enqueue(data []byte) bool {
	if s.ctx.Err() != nil {
		return false
	}
	select {
	case s.out <- data:
		return true
	default:
		logger.Log.Warn("WebSocket outbox full, dropping session", logger.WithUserID(s.UserID))
		s.close(websocket.StatusPolicyViolation, "too slow")
		return false
	}
}

// close records the close status and stops the session. The writer sends the
// close frame.
func (s *Session) close(code websocket.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		s.closeCode = code
		s.closeReason = reason
		s.cancel()
	})
}

// serve blocks until the peer disconnects or the session is closed
func (s *Session) serve() {
	defer close(s.done)

	written := make(chan struct{})
	go func() {
		defer close(written)
		s.writeLoop()
	}()

	s.readLoop()
	s.hub.leave(s)
	s.close(websocket.StatusNormalClosure, "")
	<-written
}

// readLoop runs until the connection is closed. It reads with a background
// context because cancelling a read tears the connection down before the
// writer can flush.
func (s *Session) readLoop() {
	s.conn.SetReadLimit(maxFrameSize)
	for {
		var f Frame
		if err := wsjson.Read(context.Background(), s.conn, &f); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				logger.Log.Debug("WebSocket peer closed", logger.WithUserID(s.UserID))
			default:
				if s.ctx.Err() == nil {
					logger.Log.Warn("WebSocket read failed", logger.WithUserID(s.UserID), zap.Error(err))
				}
			}
			return
		}
		s.hub.received.Add(1)
		s.dispatch(&f)
	}
}

func (s *Session) dispatch(f *Frame) {
	if f.Event == EventPing {
		_ = s.Reply(f, EventPong, map[string]int64{"serverTime": time.Now().UnixMilli()})
		return
	}

	fn, ok := s.hub.handler(f.Event)
	if !ok {
		_ = s.Reply(f, EventError, ErrorData{Code: "unknown_event", Message: "unknown event " + f.Event})
		return
	}
	if err := fn(s, f); err != nil {
		logger.Log.Error("WebSocket event handler failed",
			zap.String("event", f.Event),
			logger.WithUserID(s.UserID),
			zap.Error(err))
		_ = s.Reply(f, EventError, ErrorData{Code: "handler_error", Message: "failed to process " + f.Event})
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.flush()
			_ = s.conn.Close(s.closeCode, s.closeReason)
			return

		case data := <-s.out:
			ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
			err := s.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Log.Warn("WebSocket write failed", logger.WithUserID(s.UserID), zap.Error(err))
				s.close(websocket.StatusInternalError, "write failed")
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
			err := s.conn.Ping(ctx)
			cancel()
			if err != nil {
				logger.Log.Debug("WebSocket ping unanswered", logger.WithUserID(s.UserID), zap.Error(err))
				s.close(websocket.StatusGoingAway, "ping timeout")
			}
		}
	}
}

// flush writes whatever is still queued, within flushTimeout
func (s *Session) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case data := <-s.out:
			if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		default:
			return
		}
	}
}
