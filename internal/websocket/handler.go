package websocket

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenValidator resolves an access token to an active user
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.User, error)
}

// Handler upgrades HTTP requests into hub sessions
type Handler struct {
	hub       *Hub
	validator TokenValidator
	origins   []string
}

// NewHandler creates the upgrade handler. origins lists the browser origin
// patterns allowed to connect; nil or "*" allows any.
func NewHandler(hub *Hub, validator TokenValidator, origins []string) *Handler {
	return &Handler{hub: hub, validator: validator, origins: origins}
}

func (h *Handler) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{CompressionMode: websocket.CompressionContextTakeover}
	if len(h.origins) == 0 || (len(h.origins) == 1 && h.origins[0] == "*") {
		opts.InsecureSkipVerify = true
		return opts
	}
	for _, origin := range h.origins {
		// patterns match the host only
		origin = strings.TrimPrefix(origin, "https://")
		origin = strings.TrimPrefix(origin, "http://")
		opts.OriginPatterns = append(opts.OriginPatterns, origin)
	}
	return opts
}

// HandleWebSocket authenticates with ?token=... or a bearer header, then
// joins the caller's room until the connection ends.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	user, err := h.authenticate(c)
	if err != nil {
		logger.Log.Debug("WebSocket auth failed", zap.Error(err), logger.WithIP(c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    apperrors.ErrUnauthorized,
			"message": err.Error(),
		})
		return
	}

	conn, err := websocket.Accept(newUpgradeWriter(c.Writer), c.Request, h.acceptOptions())
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err), logger.WithUserID(user.ID))
		return
	}

	s := newSession(h.hub, conn, user, c.ClientIP())
	if !h.hub.join(s) {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	_ = s.Emit(EventConnected, gin.H{
		"userId":     user.ID,
		"username":   user.Username,
		"room":       user.ID,
		"serverTime": time.Now().UTC().UnixMilli(),
	})
	s.serve()
}

// upgradeWriter sends the 101 straight to the net/http writer and hijacks
// through gin. gin refuses to hijack a response it already wrote, and Accept
// flushes gin's header itself when it sees WriteHeaderNow.
type upgradeWriter struct {
	gw  gin.ResponseWriter
	raw http.ResponseWriter
}

func newUpgradeWriter(gw gin.ResponseWriter) http.ResponseWriter {
	u, ok := gw.(interface{ Unwrap() http.ResponseWriter })
	if !ok {
		return gw
	}
	return &upgradeWriter{gw: gw, raw: u.Unwrap()}
}

func (w *upgradeWriter) Header() http.Header { return w.gw.Header() }

func (w *upgradeWriter) Write(b []byte) (int, error) { return w.gw.Write(b) }

func (w *upgradeWriter) WriteHeader(code int) {
	if code == http.StatusSwitchingProtocols {
		w.raw.WriteHeader(code)
		return
	}
	w.gw.WriteHeader(code)
}

// Hijack marks the gin response written so nothing follows the upgrade
func (w *upgradeWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.gw.Hijack()
}

func (h *Handler) authenticate(c *gin.Context) (*models.User, error) {
	token := c.Query("token")
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		return nil, errors.New("no authentication token provided")
	}
	if h.validator == nil {
		return nil, errors.New("authentication unavailable")
	}
	return h.validator.ValidateToken(token)
}

// HandleMetrics returns hub statistics
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket": h.hub.Stats(),
		"timestamp": time.Now().UTC(),
	})
}

// HandleOnlineStatus reports which of the requested users have an open session
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"userIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.ErrValidation, "message": err.Error()})
		return
	}

	statuses := make(map[string]bool, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		statuses[userID] = h.hub.IsUserOnline(userID)
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}
