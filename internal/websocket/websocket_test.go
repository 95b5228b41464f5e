package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", logger.NoFile)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// detachedSession has no connection; its queued frames are read from out
func detachedSession(hub *Hub, userID string, outbox int) *Session {
	s := newSession(hub, nil, &models.User{Base: models.Base{ID: userID}}, "")
	s.out = make(chan []byte, outbox)
	close(s.done)
	return s
}

func nextFrame(t *testing.T, s *Session) *Frame {
	t.Helper()
	select {
	case data := <-s.out:
		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		return &f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func inbound(t *testing.T, event, ref string, data interface{}) *Frame {
	t.Helper()
	f, err := newFrame(event, data)
	require.NoError(t, err)
	f.Ref = ref
	return f
}

func TestFrameBind(t *testing.T) {
	var f Frame
	require.NoError(t, json.Unmarshal([]byte(`{"event":"send_message","data":{"receiverId":"u2","content":"hi"},"ref":"r1"}`), &f))
	assert.Equal(t, EventSendMessage, f.Event)
	assert.Equal(t, "r1", f.Ref)

	var in SendMessageData
	require.NoError(t, f.Bind(&in))
	assert.Equal(t, "u2", in.ReceiverID)
	assert.Equal(t, "hi", in.Content)

	empty := Frame{Event: EventPing}
	assert.ErrorIs(t, empty.Bind(&in), errNoData)
}

func TestEmitToUserReachesEverySessionInRoom(t *testing.T) {
	hub := NewHub()
	phone := detachedSession(hub, "user-1", 4)
	laptop := detachedSession(hub, "user-1", 4)
	other := detachedSession(hub, "user-2", 4)
	for _, s := range []*Session{phone, laptop, other} {
		require.True(t, hub.join(s))
	}
	assert.Equal(t, 2, hub.RoomSize("user-1"))

	require.NoError(t, hub.EmitToUser("user-1", EventNewNotification, map[string]string{"id": "n1"}))

	for _, s := range []*Session{phone, laptop} {
		f := nextFrame(t, s)
		assert.Equal(t, EventNewNotification, f.Event)
		assert.JSONEq(t, `{"id":"n1"}`, string(f.Data))
	}
	assert.Empty(t, other.out)
	assert.Equal(t, int64(2), hub.Stats().Delivered)
}

func TestEmitToEmptyRoomIsNotAnError(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.EmitToUser("nobody", EventNewNotification, nil))
	assert.False(t, hub.IsUserOnline("nobody"))
}

func TestLeaveRemovesEmptyRoom(t *testing.T) {
	hub := NewHub()
	s := detachedSession(hub, "user-1", 1)
	require.True(t, hub.join(s))
	assert.Contains(t, hub.OnlineUsers(), "user-1")

	hub.leave(s)
	hub.leave(s)
	assert.False(t, hub.IsUserOnline("user-1"))
	assert.Equal(t, Stats{Opened: 1}, hub.Stats())
}

func TestSlowSessionIsDropped(t *testing.T) {
	hub := NewHub()
	s := detachedSession(hub, "user-1", 1)
	require.True(t, hub.join(s))

	require.NoError(t, hub.EmitToUser("user-1", EventReceiveMessage, "first"))
	require.NoError(t, hub.EmitToUser("user-1", EventReceiveMessage, "second"))

	assert.Error(t, s.Context().Err())
	assert.Equal(t, websocket.StatusPolicyViolation, s.closeCode)
	assert.Equal(t, int64(1), hub.Stats().Dropped)
	assert.ErrorIs(t, s.Emit(EventPing, nil), errSessionClosed)
}

func TestShutdownNotifiesAndClosesSessions(t *testing.T) {
	hub := NewHub()
	s := detachedSession(hub, "user-1", 4)
	require.True(t, hub.join(s))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))

	assert.Equal(t, EventShutdown, nextFrame(t, s).Event)
	assert.Equal(t, websocket.StatusGoingAway, s.closeCode)
	assert.False(t, hub.join(detachedSession(hub, "user-2", 1)))
	assert.ErrorIs(t, hub.EmitToUser("user-1", EventNewNotification, nil), ErrHubClosed)
	assert.NoError(t, hub.Shutdown(ctx))
}

func TestDispatch(t *testing.T) {
	hub := NewHub()
	s := detachedSession(hub, "user-1", 4)

	s.dispatch(inbound(t, EventPing, "p1", nil))
	pong := nextFrame(t, s)
	assert.Equal(t, EventPong, pong.Event)
	assert.Equal(t, "p1", pong.Ref)

	s.dispatch(inbound(t, "bogus", "", nil))
	var out ErrorData
	require.NoError(t, nextFrame(t, s).Bind(&out))
	assert.Equal(t, "unknown_event", out.Code)

	hub.Handle("explode", func(*Session, *Frame) error { return errors.New("boom") })
	s.dispatch(inbound(t, "explode", "", nil))
	require.NoError(t, nextFrame(t, s).Bind(&out))
	assert.Equal(t, "handler_error", out.Code)
}

type fakeSender struct {
	transport string
	err       error
}

func (f *fakeSender) Send(_ context.Context, senderID, receiverID, content, transport string) (*models.Message, error) {
	f.transport = transport
	if f.err != nil {
		return nil, f.err
	}
	msg := &models.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	msg.ID = "m1"
	return msg, nil
}

func TestChatHandlerRepliesToSender(t *testing.T) {
	hub := NewHub()
	sender := &fakeSender{}
	RegisterChatHandlers(hub, sender)
	s := detachedSession(hub, "user-1", 4)

	s.dispatch(inbound(t, EventSendMessage, "req-1", SendMessageData{ReceiverID: "user-2", Content: "hello"}))
	reply := nextFrame(t, s)
	assert.Equal(t, EventMessageSent, reply.Event)
	assert.Equal(t, "req-1", reply.Ref)
	assert.Equal(t, "websocket", sender.transport)

	var stored models.Message
	require.NoError(t, reply.Bind(&stored))
	assert.Equal(t, "hello", stored.Content)
	assert.Equal(t, "user-1", stored.SenderID)
}

func TestChatHandlerReportsFailure(t *testing.T) {
	hub := NewHub()
	RegisterChatHandlers(hub, &fakeSender{err: apperrors.NotFound("receiver")})
	s := detachedSession(hub, "user-1", 4)

	s.dispatch(inbound(t, EventSendMessage, "", SendMessageData{ReceiverID: "ghost", Content: "hello"}))
	reply := nextFrame(t, s)
	assert.Equal(t, EventMessageError, reply.Event)

	var out ErrorData
	require.NoError(t, reply.Bind(&out))
	assert.Equal(t, string(apperrors.ErrNotFound), out.Code)

	s.dispatch(inbound(t, EventSendMessage, "", nil))
	require.NoError(t, nextFrame(t, s).Bind(&out))
	assert.Equal(t, string(apperrors.ErrValidation), out.Code)
}

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (*models.User, error) {
	if token != "good-token" {
		return nil, errors.New("invalid token")
	}
	u := &models.User{Username: "alice"}
	u.ID = "user-1"
	return u, nil
}

func TestHandleWebSocketEndToEnd(t *testing.T) {
	hub := NewHub()
	RegisterChatHandlers(hub, &fakeSender{})

	router := gin.New()
	router.GET("/ws", NewHandler(hub, staticValidator{}, nil).HandleWebSocket)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=good-token"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var welcome Frame
	require.NoError(t, wsjson.Read(ctx, conn, &welcome))
	assert.Equal(t, EventConnected, welcome.Event)
	assert.True(t, hub.IsUserOnline("user-1"))

	require.NoError(t, wsjson.Write(ctx, conn, inbound(t, EventSendMessage, "r1",
		SendMessageData{ReceiverID: "user-2", Content: "over the wire"})))

	var reply Frame
	require.NoError(t, wsjson.Read(ctx, conn, &reply))
	assert.Equal(t, EventMessageSent, reply.Event)
	assert.Equal(t, "r1", reply.Ref)

	require.NoError(t, hub.EmitToUser("user-1", EventNewNotification, map[string]string{"type": "follow"}))
	var pushed Frame
	require.NoError(t, wsjson.Read(ctx, conn, &pushed))
	assert.Equal(t, EventNewNotification, pushed.Event)

	go func() {
		_ = hub.Shutdown(ctx)
	}()
	var bye Frame
	require.NoError(t, wsjson.Read(ctx, conn, &bye))
	assert.Equal(t, EventShutdown, bye.Event)
}

func TestHandleWebSocketRejectsBadToken(t *testing.T) {
	router := gin.New()
	router.GET("/ws", NewHandler(NewHub(), staticValidator{}, nil).HandleWebSocket)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token=nope", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleOnlineStatus(t *testing.T) {
	hub := NewHub()
	require.True(t, hub.join(detachedSession(hub, "user-1", 1)))

	router := gin.New()
	router.POST("/online", NewHandler(hub, staticValidator{}, nil).HandleOnlineStatus)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/online", strings.NewReader(`{"userIds":["user-1","user-2"]}`)))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Statuses map[string]bool `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]bool{"user-1": true, "user-2": false}, body.Statuses)
}
