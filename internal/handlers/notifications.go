package handlers

import (
	"github.com/carecircle/backend/internal/dto"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// ListNotifications returns the caller's notifications with the unread count
// GET /api/v1/notifications?page=&limit=&unreadOnly=
func (h *Handlers) ListNotifications(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	page := util.PageFromQuery(c)
	unreadOnly := false
	if v := util.ParseBool(c.Query("unreadOnly")); v != nil {
		unreadOnly = *v
	}
	result, err := h.notifications.List(c.Request.Context(), user.ID, unreadOnly, page.Offset(), page.Limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	list := make([]*dto.NotificationResponse, len(result.Notifications))
	for i := range result.Notifications {
		list[i] = dto.ToNotificationResponse(&result.Notifications[i])
	}
	util.RespondOK(c, "notifications", gin.H{
		"notifications": list,
		"unreadCount":   result.UnreadCount,
		"pagination":    page.Paginate(result.Total),
	})
}

// MarkNotificationRead marks one of the caller's notifications read
// PUT /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	n, err := h.notifications.MarkRead(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	n.IsRead = true
	util.RespondOK(c, "notification marked as read", gin.H{"notification": dto.ToNotificationResponse(n)})
}

// MarkAllNotificationsRead marks every unread notification of the caller read
// PUT /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "all notifications marked as read", gin.H{"updated": updated})
}
