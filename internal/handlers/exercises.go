package handlers

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type exerciseRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Duration    *int                 `json:"duration"`
	Calories    *int                 `json:"calories"`
	Type        *models.ExerciseType `json:"type"`
	Date        *time.Time           `json:"date"`
	Time        *string              `json:"time"`
}

func (r *exerciseRequest) apply(e *models.Exercise) error {
	var err error
	if r.Title != nil {
		if e.Title, err = requiredText("title", r.Title, 120); err != nil {
			return err
		}
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		if len([]rune(desc)) > 1000 {
			return apperrors.ValidationError("description", "description must be at most 1000 characters")
		}
		e.Description = desc
	}
	if r.Duration != nil {
		if *r.Duration < 0 {
			return apperrors.ValidationError("duration", "duration must not be negative")
		}
		e.Duration = *r.Duration
	}
	if r.Calories != nil {
		if *r.Calories < 0 {
			return apperrors.ValidationError("calories", "calories must not be negative")
		}
		e.Calories = *r.Calories
	}
	if r.Type != nil {
		if *r.Type != models.ExerciseIncome && *r.Type != models.ExerciseExpense {
			return apperrors.ValidationError("type", "type must be income or expense")
		}
		e.Type = *r.Type
	}
	if r.Date != nil {
		e.Date = r.Date.UTC()
	}
	if r.Time != nil {
		if *r.Time != "" && !clockPattern.MatchString(*r.Time) {
			return apperrors.ValidationError("time", "time must be HH:MM")
		}
		e.Time = *r.Time
	}
	return nil
}

type calorieSummary struct {
	TotalIncome  int `json:"totalIncome"`
	TotalExpense int `json:"totalExpense"`
	Net          int `json:"net"`
}

func (s *calorieSummary) add(e *models.Exercise) {
	if e.Type == models.ExerciseIncome {
		s.TotalIncome += e.Calories
		s.Net += e.Calories
		return
	}
	s.TotalExpense += e.Calories
	s.Net -= e.Calories
}

type calendarDay struct {
	Date string `json:"date"`
	calorieSummary
	HasActivity bool `json:"hasActivity"`
}

// parseDay reads a YYYY-MM-DD query value as a UTC midnight
func parseDay(field, value string) (time.Time, error) {
	day, err := time.Parse(dayLayout, value)
	if err != nil {
		return time.Time{}, apperrors.ValidationError(field, field+" must be YYYY-MM-DD")
	}
	return day, nil
}

// ListExercises returns the caller's entries, optionally for one day
// (?date=) or a range (?startDate=&endDate=, inclusive) with a calorie summary
// GET /api/v1/exercises
func (h *Handlers) ListExercises(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	q := h.db.WithContext(c.Request.Context()).Where("user_id = ?", user.ID)
	ranged := false
	switch date, start, end := c.Query("date"), c.Query("startDate"), c.Query("endDate"); {
	case date != "":
		day, err := parseDay("date", date)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		q = q.Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))
		ranged = true
	case start != "" && end != "":
		from, err := parseDay("startDate", start)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		to, err := parseDay("endDate", end)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		if to.Before(from) {
			util.RespondValidationError(c, "endDate", "endDate must not be before startDate")
			return
		}
		q = q.Where("date >= ? AND date < ?", from, to.AddDate(0, 0, 1))
		ranged = true
	}

	var list []models.Exercise
	if err := q.Order("date DESC, created_at DESC").Find(&list).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	data := gin.H{"exercises": list}
	if ranged {
		var summary calorieSummary
		for i := range list {
			summary.add(&list[i])
		}
		data["summary"] = summary
	}
	util.RespondOK(c, "exercises", data)
}

// ExerciseCalendar returns per-day totals for one month, days with entries only
// GET /api/v1/exercises/calendar?year=&month=
func (h *Handlers) ExerciseCalendar(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	year, yerr := strconv.Atoi(c.Query("year"))
	month, merr := strconv.Atoi(c.Query("month"))
	if yerr != nil || merr != nil || month < 1 || month > 12 {
		util.RespondValidationError(c, "month", "year and month (1-12) are required")
		return
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var list []models.Exercise
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND date >= ? AND date < ?", user.ID, from, to).
		Order("date ASC").Find(&list).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}

	days := make([]*calendarDay, 0)
	index := make(map[string]*calendarDay)
	for i := range list {
		key := list[i].Date.UTC().Format(dayLayout)
		day, ok := index[key]
		if !ok {
			day = &calendarDay{Date: key, HasActivity: true}
			index[key] = day
			days = append(days, day)
		}
		day.add(&list[i])
	}
	util.RespondOK(c, "calendar", gin.H{"days": days})
}

func (h *Handlers) ownExercise(c *gin.Context, userID string) (*models.Exercise, error) {
	var e models.Exercise
	err := h.db.WithContext(c.Request.Context()).First(&e, "id = ? AND user_id = ?", c.Param("id"), userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("exercise")
		}
		return nil, err
	}
	return &e, nil
}

// CreateExercise logs an entry; date defaults to now
// POST /api/v1/exercises
func (h *Handlers) CreateExercise(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req exerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if req.Title == nil || req.Type == nil || req.Calories == nil {
		util.RespondValidationError(c, "title", "title, type and calories are required")
		return
	}
	e := models.Exercise{UserID: user.ID, Date: time.Now().UTC()}
	if err := req.apply(&e); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&e).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondCreated(c, "exercise created", gin.H{"exercise": e})
}

// UpdateExercise edits one of the caller's entries
// PUT /api/v1/exercises/:id
func (h *Handlers) UpdateExercise(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	e, err := h.ownExercise(c, user.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	var req exerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if err := req.apply(e); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Save(e).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "exercise updated", gin.H{"exercise": e})
}

// DeleteExercise removes one of the caller's entries
// DELETE /api/v1/exercises/:id
func (h *Handlers) DeleteExercise(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Where("id = ? AND user_id = ?", c.Param("id"), user.ID).Delete(&models.Exercise{})
	if res.Error != nil {
		util.RespondWithError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "exercise")
		return
	}
	util.RespondOK(c, "exercise deleted", nil)
}
