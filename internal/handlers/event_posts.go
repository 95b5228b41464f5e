package handlers

import (
	"strings"

	"github.com/carecircle/backend/internal/comments"
	"github.com/carecircle/backend/internal/dto"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handlers) eventPostResponses(c *gin.Context, list []models.EventPost) []*dto.EventPostResponse {
	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	states := h.reactionStates(c, models.TargetEventPost, ids)
	viewer := util.CurrentUser(c)
	out := make([]*dto.EventPostResponse, len(list))
	for i := range list {
		out[i] = dto.ToEventPostResponse(&list[i], viewer, dto.ReactionsFor(states, list[i].ID))
	}
	return out
}

// ListEventPosts lists the discussion of one event, newest first
// GET /api/v1/event-posts/event/:eventId
func (h *Handlers) ListEventPosts(c *gin.Context) {
	ctx := c.Request.Context()
	var event models.Event
	if err := h.findByID(ctx, &event, c.Param("eventId"), "event"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	page := util.PageFromQuery(c)
	isAdmin := util.IsAdmin(c)
	scoped := func() *gorm.DB {
		q := h.db.WithContext(ctx).Model(&models.EventPost{}).Where("event_id = ?", event.ID)
		if !isAdmin {
			q = q.Where("is_approved = ?", true)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var list []models.EventPost
	if err := scoped().Preload("Author").Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).Find(&list).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "event posts", gin.H{
		"posts":      h.eventPostResponses(c, list),
		"pagination": page.Paginate(total),
	})
}

// CreateEventPost posts into an existing event's discussion
// POST /api/v1/event-posts {eventId, title, content, images}
func (h *Handlers) CreateEventPost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req struct {
		EventID string   `json:"eventId" binding:"required"`
		Title   string   `json:"title" binding:"required,max=200"`
		Content string   `json:"content" binding:"required,max=5000"`
		Images  []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	title, content := strings.TrimSpace(req.Title), strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		util.RespondValidationError(c, "content", "title and content must not be blank")
		return
	}

	ctx := c.Request.Context()
	var event models.Event
	if err := h.findByID(ctx, &event, req.EventID, "event"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	post := models.EventPost{
		EventID:  event.ID,
		AuthorID: user.ID,
		Title:    title,
		Content:  content,
		Images:   trimList(req.Images),
	}
	if err := h.db.WithContext(ctx).Create(&post).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	post.Author = user
	util.RespondCreated(c, "event post created", gin.H{
		"post": dto.ToEventPostResponse(&post, user, dto.Reactions{}),
	})
}

// DeleteEventPost removes an event post and its comment thread
// DELETE /api/v1/event-posts/:id
func (h *Handlers) DeleteEventPost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var post models.EventPost
	if err := h.findByID(ctx, &post, c.Param("id"), "event post"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(user, post.AuthorID) {
		util.RespondForbidden(c, "only the author or an admin can delete this post")
		return
	}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := comments.PurgeItems(tx, models.TargetEventPost, post.ID); err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "event post deleted", nil)
}
