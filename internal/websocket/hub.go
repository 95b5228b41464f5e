// Package websocket is the real-time side channel. Every authenticated
// connection joins the room named by its user id, and emits address a room.
// Delivery is best effort: an empty room swallows the event.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// ErrHubClosed is returned when emitting after Shutdown
var ErrHubClosed = errors.New("websocket hub closed")

// EventHandler processes one inbound frame for a session
type EventHandler func(s *Session, f *Frame) error

// Hub tracks rooms of sessions keyed by user id
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Session]struct{}
	handlers map[string]EventHandler
	closed   bool

	opened    atomic.Int64
	received  atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Session]struct{}),
		handlers: make(map[string]EventHandler),
	}
}

// Handle routes inbound frames named event to fn
func (h *Hub) Handle(event string, fn EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[event] = fn
}

func (h *Hub) handler(event string) (EventHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.handlers[event]
	return fn, ok
}

// join adds s to its user's room. It fails once the hub is shut down.
func (h *Hub) join(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}

	room := h.rooms[s.UserID]
	if room == nil {
		room = make(map[*Session]struct{})
		h.rooms[s.UserID] = room
	}
	room[s] = struct{}{}
	h.opened.Add(1)
	metrics.AddWebSocketConnections(1)

	logger.Log.Info("WebSocket session joined",
		logger.WithUserID(s.UserID),
		zap.Int("room_size", len(room)))
	return true
}

func (h *Hub) leave(s *Session) {
	h.mu.Lock()
	room := h.rooms[s.UserID]
	if _, ok := room[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, s.UserID)
	}
	h.mu.Unlock()

	metrics.AddWebSocketConnections(-1)
	logger.Log.Info("WebSocket session left", logger.WithUserID(s.UserID))
}

// EmitToUser pushes event to every session in the user's room
func (h *Hub) EmitToUser(userID, event string, payload interface{}) error {
	frame, err := newFrame(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}
	for s := range h.rooms[userID] {
		if s.enqueue(data) {
			h.delivered.Add(1)
		} else {
			h.dropped.Add(1)
		}
	}
	return nil
}

// IsUserOnline reports whether the user's room has any session
func (h *Hub) IsUserOnline(userID string) bool {
	return h.RoomSize(userID) > 0
}

func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]string, 0, len(h.rooms))
	for userID := range h.rooms {
		users = append(users, userID)
	}
	return users
}

// Stats is a point-in-time view of the hub
type Stats struct {
	Sessions  int   `json:"sessions"`
	Users     int   `json:"users"`
	Opened    int64 `json:"opened"`
	Received  int64 `json:"received"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	sessions := 0
	for _, room := range h.rooms {
		sessions += len(room)
	}
	users := len(h.rooms)
	h.mu.RUnlock()

	return Stats{
		Sessions:  sessions,
		Users:     users,
		Opened:    h.opened.Load(),
		Received:  h.received.Load(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}

// Shutdown tells every session the server is going away, disconnects them and
// waits for their writers to finish or ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	var sessions []*Session
	for _, room := range h.rooms {
		for s := range room {
			sessions = append(sessions, s)
		}
	}
	h.rooms = make(map[string]map[*Session]struct{})
	h.mu.Unlock()

	metrics.AddWebSocketConnections(-len(sessions))
	for _, s := range sessions {
		_ = s.Emit(EventShutdown, nil)
		s.close(websocket.StatusGoingAway, "server shutting down")
	}
	for _, s := range sessions {
		select {
		case <-s.done:
		case <-ctx.Done():
			return fmt.Errorf("websocket shutdown: %w", ctx.Err())
		}
	}

	logger.Log.Info("WebSocket hub stopped", zap.Int("sessions_closed", len(sessions)))
	return nil
}
