package handlers

import (
	"errors"
	"sort"
	"strings"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dayLayout = "2006-01-02"

type dietRequest struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	Duration     *int       `json:"duration"`
	Period       *string    `json:"period"`
	CustomPeriod *int       `json:"customPeriod"`
	EndDate      *time.Time `json:"endDate"`
}

func (r *dietRequest) apply(d *models.Diet) error {
	var err error
	if r.Name != nil {
		if d.Name, err = requiredText("name", r.Name, 120); err != nil {
			return err
		}
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		if len([]rune(desc)) > 1000 {
			return apperrors.ValidationError("description", "description must be at most 1000 characters")
		}
		d.Description = desc
	}
	if r.Duration != nil {
		if *r.Duration < 1 {
			return apperrors.ValidationError("duration", "duration must be at least 1")
		}
		d.Duration = *r.Duration
	}
	if r.Period != nil {
		if !validCategory(models.DietPeriods, *r.Period) {
			return apperrors.ValidationError("period", "period must be one of daily, weekly, monthly, custom")
		}
		d.Period = *r.Period
	}
	if r.CustomPeriod != nil {
		d.CustomPeriod = *r.CustomPeriod
	}
	if d.Period == "custom" && d.CustomPeriod < 1 {
		return apperrors.ValidationError("customPeriod", "customPeriod is required for a custom period")
	}
	if r.EndDate != nil {
		end := r.EndDate.UTC()
		d.EndDate = &end
	}
	return nil
}

func withHistory(db *gorm.DB) *gorm.DB {
	return db.Preload("CompletionHistory", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("completed_at ASC")
	})
}

// ownDiet loads a diet that belongs to userID; anyone else gets NotFound
func (h *Handlers) ownDiet(c *gin.Context, userID string) (*models.Diet, error) {
	var diet models.Diet
	err := withHistory(h.db.WithContext(c.Request.Context())).
		First(&diet, "id = ? AND user_id = ?", c.Param("id"), userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("diet")
		}
		return nil, err
	}
	return &diet, nil
}

// ListDiets returns the caller's diets, newest first
// GET /api/v1/diets
func (h *Handlers) ListDiets(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var diets []models.Diet
	if err := withHistory(h.db.WithContext(c.Request.Context())).
		Where("user_id = ?", user.ID).Order("created_at DESC").Find(&diets).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "diets", gin.H{"diets": diets})
}

// longestStreak is the longest run of consecutive UTC days with a completion
func longestStreak(history []models.DietCompletion) int {
	days := make(map[string]bool, len(history))
	for _, h := range history {
		days[h.CompletedAt.UTC().Format(dayLayout)] = true
	}
	sorted := make([]string, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	best, run := 0, 0
	var prev time.Time
	for i, d := range sorted {
		day, _ := time.Parse(dayLayout, d)
		if i > 0 && day.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = day
	}
	return best
}

// DietStats summarizes the caller's diets
// GET /api/v1/diets/stats
func (h *Handlers) DietStats(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var diets []models.Diet
	if err := withHistory(h.db.WithContext(c.Request.Context())).
		Where("user_id = ?", user.ID).Find(&diets).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var active, completions, streak int
	for i := range diets {
		if diets[i].IsActive {
			active++
		}
		completions += len(diets[i].CompletionHistory)
		if s := longestStreak(diets[i].CompletionHistory); s > streak {
			streak = s
		}
	}
	util.RespondOK(c, "diet stats", gin.H{
		"totalDiets":       len(diets),
		"activeDiets":      active,
		"totalCompletions": completions,
		"longestStreak":    streak,
	})
}

// CreateDiet starts a new active diet today
// POST /api/v1/diets
func (h *Handlers) CreateDiet(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req dietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if req.Name == nil || req.Duration == nil || req.Period == nil {
		util.RespondValidationError(c, "name", "name, duration and period are required")
		return
	}
	diet := models.Diet{UserID: user.ID, IsActive: true, StartDate: time.Now().UTC()}
	if err := req.apply(&diet); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&diet).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	diet.CompletionHistory = []models.DietCompletion{}
	util.RespondCreated(c, "diet created", gin.H{"diet": diet})
}

// UpdateDiet edits the plan fields of one of the caller's diets
// PUT /api/v1/diets/:id
func (h *Handlers) UpdateDiet(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	diet, err := h.ownDiet(c, user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	var req dietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if err := req.apply(diet); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(diet).
		Select("name", "description", "duration", "period", "custom_period", "end_date").
		Updates(diet).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "diet updated", gin.H{"diet": diet})
}

// DeleteDiet removes one of the caller's diets with its history
// DELETE /api/v1/diets/:id
func (h *Handlers) DeleteDiet(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	diet, err := h.ownDiet(c, user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("diet_id = ?", diet.ID).Delete(&models.DietCompletion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Diet{}, "id = ?", diet.ID).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "diet deleted", nil)
}

// CompleteDiet records today's completion; at most once per UTC day
// POST /api/v1/diets/:id/complete {notes}
func (h *Handlers) CompleteDiet(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	diet, err := h.ownDiet(c, user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	var req struct {
		Notes string `json:"notes" binding:"max=500"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	now := time.Now().UTC()
	today := now.Format(dayLayout)
	for _, done := range diet.CompletionHistory {
		if done.CompletedAt.UTC().Format(dayLayout) == today {
			util.RespondWithError(c, apperrors.BadRequest("diet already completed today"))
			return
		}
	}

	completion := models.DietCompletion{DietID: diet.ID, CompletedAt: now, Notes: strings.TrimSpace(req.Notes)}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&completion).Error; err != nil {
			return err
		}
		return tx.Model(&models.Diet{}).Where("id = ?", diet.ID).
			UpdateColumn("completed_count", len(diet.CompletionHistory)+1).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	diet.CompletionHistory = append(diet.CompletionHistory, completion)
	diet.CompletedCount = len(diet.CompletionHistory)
	util.RespondOK(c, "diet completed", gin.H{"diet": diet})
}

// ToggleDiet flips isActive
// PATCH /api/v1/diets/:id/toggle
func (h *Handlers) ToggleDiet(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	diet, err := h.ownDiet(c, user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	diet.IsActive = !diet.IsActive
	if err := h.db.WithContext(c.Request.Context()).Model(&models.Diet{}).Where("id = ?", diet.ID).
		UpdateColumn("is_active", diet.IsActive).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "diet toggled", gin.H{"diet": diet})
}
