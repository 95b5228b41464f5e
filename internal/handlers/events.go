package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/carecircle/backend/internal/comments"
	"github.com/carecircle/backend/internal/dto"
	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/events"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/moderation"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// statuses anyone may browse; pending and rejected are for authors and admins
var publicEventStatuses = []models.EventStatus{models.EventActive, models.EventFull, models.EventCompleted}

type eventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Category        *string    `json:"category"`
	Instructor      *string    `json:"instructor"`
	InstructorTitle *string    `json:"instructorTitle"`
	Date            *time.Time `json:"date"`
	EndDate         *time.Time `json:"endDate"`
	Location        *string    `json:"location"`
	LocationAddress *string    `json:"locationAddress"`
	MaxParticipants *int       `json:"maxParticipants"`
	Price           *float64   `json:"price"`
	IsOnline        *bool      `json:"isOnline"`
	Organizer       *string    `json:"organizer"`
	OrganizerType   *string    `json:"organizerType"`
	Tags            []string   `json:"tags"`
	Requirements    *string    `json:"requirements"`
	Image           *string    `json:"image"`
}

func requiredText(field string, v *string, max int) (string, error) {
	s := strings.TrimSpace(*v)
	if s == "" || len([]rune(s)) > max {
		return "", apperrors.ValidationError(field, field+" is required and must be at most "+strconv.Itoa(max)+" characters")
	}
	return s, nil
}

func (r *eventRequest) apply(e *models.Event) error {
	var err error
	if r.Title != nil {
		if e.Title, err = requiredText("title", r.Title, 200); err != nil {
			return err
		}
	}
	if r.Description != nil {
		if e.Description, err = requiredText("description", r.Description, 2000); err != nil {
			return err
		}
	}
	if r.Instructor != nil {
		if e.Instructor, err = requiredText("instructor", r.Instructor, 100); err != nil {
			return err
		}
	}
	if r.Location != nil {
		if e.Location, err = requiredText("location", r.Location, 200); err != nil {
			return err
		}
	}
	if r.Organizer != nil {
		if e.Organizer, err = requiredText("organizer", r.Organizer, 200); err != nil {
			return err
		}
	}
	if r.Category != nil {
		if !validCategory(models.EventCategories, *r.Category) {
			return apperrors.ValidationError("category", "invalid category")
		}
		e.Category = *r.Category
	}
	if r.OrganizerType != nil {
		if !validCategory(models.OrganizerTypes, *r.OrganizerType) {
			return apperrors.ValidationError("organizerType", "invalid organizer type")
		}
		e.OrganizerType = *r.OrganizerType
	}
	if r.Date != nil {
		e.Date = r.Date.UTC()
	}
	if r.EndDate != nil {
		end := r.EndDate.UTC()
		e.EndDate = &end
	}
	if e.EndDate != nil && e.EndDate.Before(e.Date) {
		return apperrors.ValidationError("endDate", "endDate must not be before date")
	}
	if r.MaxParticipants != nil {
		if *r.MaxParticipants < 1 {
			return apperrors.ValidationError("maxParticipants", "maxParticipants must be at least 1")
		}
		e.MaxParticipants = *r.MaxParticipants
	}
	if r.Price != nil {
		if *r.Price < 0 {
			return apperrors.ValidationError("price", "price must not be negative")
		}
		e.Price = *r.Price
	}
	if r.InstructorTitle != nil {
		e.InstructorTitle = strings.TrimSpace(*r.InstructorTitle)
	}
	if r.LocationAddress != nil {
		e.LocationAddress = strings.TrimSpace(*r.LocationAddress)
	}
	if r.Requirements != nil {
		e.Requirements = strings.TrimSpace(*r.Requirements)
	}
	if r.Image != nil {
		e.Image = *r.Image
	}
	if r.IsOnline != nil {
		e.IsOnline = *r.IsOnline
	}
	if r.Tags != nil {
		e.Tags = trimList(r.Tags)
	}
	return nil
}

func isPublicStatus(status models.EventStatus) bool {
	for _, s := range publicEventStatuses {
		if status == s {
			return true
		}
	}
	return false
}

func canSeeEvent(viewer *models.User, e *models.Event) bool {
	return isPublicStatus(e.Status) || canModify(viewer, e.AuthorID)
}

func (h *Handlers) eventResponses(c *gin.Context, list []models.Event) []*dto.EventResponse {
	viewer := util.CurrentUser(c)
	out := make([]*dto.EventResponse, len(list))
	for i := range list {
		out[i] = dto.ToEventResponse(&list[i], viewer)
	}
	return out
}

// eventQuery applies the shared list filters. Non-admins default to active
// events and may only ask for public statuses.
func (h *Handlers) eventQuery(c *gin.Context, search string) func() *gorm.DB {
	isAdmin := util.IsAdmin(c)
	status := models.EventStatus(c.Query("status"))
	if status == "" && !isAdmin {
		status = models.EventActive
	}
	category := c.Query("category")
	upcoming := util.ParseBool(c.Query("upcoming"))
	online := util.ParseBool(c.Query("isOnline"))

	return func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.Event{})
		switch {
		case status != "" && (isAdmin || isPublicStatus(status)):
			q = q.Where("status = ?", status)
		case !isAdmin:
			q = q.Where("status IN ?", publicEventStatuses)
		}
		if category != "" {
			q = q.Where("category = ?", category)
		}
		if upcoming != nil && *upcoming {
			q = q.Where("date >= ?", time.Now().UTC())
		}
		if online != nil {
			q = q.Where("is_online = ?", *online)
		}
		return matchAny(q, search, "title", "description", "instructor", "location")
	}
}

func (h *Handlers) listEvents(c *gin.Context, search string) {
	page := util.PageFromQuery(c)
	scoped := h.eventQuery(c, search)

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var list []models.Event
	if err := scoped().Preload("Author").Order("date ASC").
		Offset(page.Offset()).Limit(page.Limit).Find(&list).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "events", gin.H{
		"events":     h.eventResponses(c, list),
		"pagination": page.Paginate(total),
	})
}

// ListEvents lists events, soonest first
// GET /api/v1/events?status=&category=&search=&upcoming=&isOnline=
func (h *Handlers) ListEvents(c *gin.Context) {
	h.listEvents(c, c.Query("search"))
}

// SearchEvents is ListEvents keyed on ?q=
// GET /api/v1/events/search?q=
func (h *Handlers) SearchEvents(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}
	h.listEvents(c, q)
}

// EventStats summarizes events by status and category
// GET /api/v1/events/stats
func (h *Handlers) EventStats(c *gin.Context) {
	ctx := c.Request.Context()
	var byStatus []struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	if err := h.db.WithContext(ctx).Model(&models.Event{}).
		Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var byCategory []categoryCount
	if err := h.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ?", models.EventActive).
		Select("category, COUNT(*) AS count").Group("category").Order("count DESC").Scan(&byCategory).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var upcoming, participants int64
	if err := h.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ? AND date >= ?", models.EventActive, time.Now().UTC()).Count(&upcoming).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("status = ?", models.ParticipantConfirmed).Count(&participants).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "event stats", gin.H{
		"byStatus":          byStatus,
		"byCategory":        byCategory,
		"upcoming":          upcoming,
		"totalParticipants": participants,
	})
}

// MyEvents lists events the caller registered for, or with ?type=created
// the events they organize
// GET /api/v1/events/my-events
func (h *Handlers) MyEvents(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	q := h.db.WithContext(c.Request.Context()).Preload("Author")
	if c.Query("type") == "created" {
		q = q.Where("author_id = ?", user.ID)
	} else {
		q = q.Where("id IN (?)", h.db.Model(&models.EventParticipant{}).
			Select("event_id").
			Where("user_id = ? AND status = ?", user.ID, models.ParticipantConfirmed))
	}
	var list []models.Event
	if err := q.Order("date ASC").Find(&list).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "my events", gin.H{"events": h.eventResponses(c, list)})
}

// CreateEvent creates an event. Admin events go live immediately; approved
// doctors' events wait for an admin decision.
// POST /api/v1/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	author, err := h.moderation.RequireApprovedDoctor(ctx, user.ID, true)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if req.Title == nil || req.Description == nil || req.Category == nil || req.Instructor == nil ||
		req.Date == nil || req.Location == nil || req.MaxParticipants == nil || req.Organizer == nil {
		util.RespondValidationError(c, "event", "title, description, category, instructor, date, location, maxParticipants and organizer are required")
		return
	}
	event := models.Event{AuthorID: author.ID, OrganizerType: "individual", Status: models.EventPending}
	if err := req.apply(&event); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if author.IsAdmin() {
		now := time.Now().UTC()
		event.Status = models.EventActive
		event.ApprovedBy = &author.ID
		event.ApprovedAt = &now
	}
	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	event.Author = author
	logger.Log.Info("Event created",
		logger.WithEventID(event.ID),
		logger.WithUserID(author.ID),
		zap.String("status", string(event.Status)),
	)
	util.RespondCreated(c, "event created", gin.H{"event": dto.ToEventResponse(&event, author)})
}

// GetEvent returns an event and whether the caller is registered
// GET /api/v1/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	ctx := c.Request.Context()
	var event models.Event
	if err := h.findByID(ctx, &event, c.Param("id"), "event", "Author"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	viewer := util.CurrentUser(c)
	if !canSeeEvent(viewer, &event) {
		util.RespondNotFound(c, "event")
		return
	}
	resp := dto.ToEventResponse(&event, viewer)
	if viewer != nil {
		registered, err := h.events.IsRegistered(ctx, event.ID, viewer.ID)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		resp.IsRegistered = &registered
	}
	util.RespondOK(c, "event", gin.H{"event": resp})
}

// UpdateEvent edits an event; author or admin only
// PUT /api/v1/events/:id
func (h *Handlers) UpdateEvent(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var event models.Event
	if err := h.findByID(ctx, &event, c.Param("id"), "event"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(user, event.AuthorID) {
		util.RespondForbidden(c, "only the organizer or an admin can edit this event")
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if err := req.apply(&event); err != nil {
		util.RespondWithError(c, err)
		return
	}
	// Save recomputes currentParticipants from the confirmed rows
	if err := h.db.WithContext(ctx).Omit("Author", "Participants").Save(&event).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	if event.MaxParticipants < event.CurrentParticipants {
		logger.Log.Warn("Event capacity reduced below confirmed participants",
			logger.WithEventID(event.ID),
			zap.Int("max", event.MaxParticipants),
			zap.Int("confirmed", event.CurrentParticipants),
		)
	}
	util.RespondOK(c, "event updated", gin.H{"event": dto.ToEventResponse(&event, user)})
}

// DeleteEvent removes an event with its participants and discussion
// DELETE /api/v1/events/:id
func (h *Handlers) DeleteEvent(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var event models.Event
	if err := h.findByID(ctx, &event, c.Param("id"), "event"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(user, event.AuthorID) {
		util.RespondForbidden(c, "only the organizer or an admin can delete this event")
		return
	}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		if err := tx.Model(&models.EventPost{}).Where("event_id = ?", event.ID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := comments.PurgeItems(tx, models.TargetEventPost, postIDs...); err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		if err := moderation.PurgeTarget(tx, models.TargetEvent, event.ID); err != nil {
			return err
		}
		return tx.Delete(&event).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "event deleted", nil)
}

// RegisterForEvent confirms the caller's place
// POST /api/v1/events/:id/register
func (h *Handlers) RegisterForEvent(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	event, participant, err := h.events.Register(c.Request.Context(), c.Param("id"), user.ID, req.Notes)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "registered", gin.H{
		"event":       dto.ToEventResponse(event, user),
		"participant": participant,
	})
}

// UnregisterFromEvent cancels the caller's registration
// DELETE /api/v1/events/:id/register
func (h *Handlers) UnregisterFromEvent(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	event, err := h.events.Unregister(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "unregistered", gin.H{"event": dto.ToEventResponse(event, user)})
}

// EventParticipants lists participants; organizer or admin only
// GET /api/v1/events/:id/participants?status=
func (h *Handlers) EventParticipants(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var event models.Event
	if err := h.findByID(ctx, &event, c.Param("id"), "event"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(user, event.AuthorID) {
		util.RespondForbidden(c, "only the organizer or an admin can view participants")
		return
	}
	page := util.PageFromQueryWithDefault(c, 50)
	list, total, err := h.events.Participants(ctx, event.ID, models.ParticipantStatus(c.Query("status")), page.Offset(), page.Limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	participants := make([]gin.H, len(list))
	for i := range list {
		participants[i] = gin.H{
			"id":           list[i].ID,
			"user":         dto.ToAuthor(list[i].User, false, user),
			"status":       list[i].Status,
			"notes":        list[i].Notes,
			"registeredAt": list[i].CreatedAt,
		}
	}
	util.RespondOK(c, "participants", gin.H{
		"participants": participants,
		"pagination":   page.Paginate(total),
	})
}

// DecideEvent is the admin approve/reject action
// PUT /api/v1/events/:id/approve {action, reason}
func (h *Handlers) DecideEvent(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	event, err := h.events.Decide(c.Request.Context(), c.Param("id"), admin.ID, events.Decision(req.Action), req.Reason)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "event "+string(event.Status), gin.H{"event": dto.ToEventResponse(event, admin)})
}
