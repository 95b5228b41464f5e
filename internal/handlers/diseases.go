package handlers

import (
	"strings"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type diseaseRequest struct {
	Name             *string  `json:"name"`
	Description      *string  `json:"description"`
	Category         *string  `json:"category"`
	Symptoms         []string `json:"symptoms"`
	CommonTreatments []string `json:"commonTreatments"`
	Severity         *string  `json:"severity"`
	Prevalence       *string  `json:"prevalence"`
	Tags             []string `json:"tags"`
	IsActive         *bool    `json:"isActive"`
}

func (r *diseaseRequest) apply(d *models.Disease) error {
	var err error
	if r.Name != nil {
		if d.Name, err = requiredText("name", r.Name, 100); err != nil {
			return err
		}
	}
	if r.Description != nil {
		if d.Description, err = requiredText("description", r.Description, 2000); err != nil {
			return err
		}
	}
	if r.Category != nil {
		if !validCategory(models.DiseaseCategories, *r.Category) {
			return apperrors.ValidationError("category", "invalid category")
		}
		d.Category = *r.Category
	}
	if r.Severity != nil {
		if !validCategory(models.Severities, *r.Severity) {
			return apperrors.ValidationError("severity", "severity must be one of low, medium, high, critical")
		}
		d.Severity = *r.Severity
	}
	if r.Prevalence != nil {
		if !validCategory(models.Prevalences, *r.Prevalence) {
			return apperrors.ValidationError("prevalence", "prevalence must be one of rare, uncommon, common, very-common")
		}
		d.Prevalence = *r.Prevalence
	}
	if r.Symptoms != nil {
		d.Symptoms = trimList(r.Symptoms)
	}
	if r.CommonTreatments != nil {
		d.CommonTreatments = trimList(r.CommonTreatments)
	}
	if r.Tags != nil {
		d.Tags = trimList(r.Tags)
	}
	if r.IsActive != nil {
		d.IsActive = *r.IsActive
	}
	return nil
}

// ListDiseases lists library entries by name; only active ones unless ?active=false
// GET /api/v1/diseases?category=&severity=&prevalence=&search=&active=
func (h *Handlers) ListDiseases(c *gin.Context) {
	page := util.PageFromQueryWithDefault(c, 50)
	active := true
	if v := util.ParseBool(c.Query("active")); v != nil {
		active = *v
	}
	scoped := func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.Disease{}).Where("is_active = ?", active)
		for _, col := range []string{"category", "severity", "prevalence"} {
			if v := c.Query(col); v != "" {
				q = q.Where(col+" = ?", v)
			}
		}
		return matchAny(q, c.Query("search"), "name", "description")
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var list []models.Disease
	if err := scoped().Order("name ASC").Offset(page.Offset()).Limit(page.Limit).Find(&list).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "diseases", gin.H{
		"diseases":   list,
		"pagination": page.Paginate(total),
	})
}

// SearchDiseases matches active entries by name, description, or tag
// GET /api/v1/diseases/search?q=&limit=
func (h *Handlers) SearchDiseases(c *gin.Context) {
	term := c.Query("q")
	if strings.TrimSpace(term) == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}
	limit := util.PageFromQueryWithDefault(c, 20).Limit
	q := h.db.WithContext(c.Request.Context()).Model(&models.Disease{}).Where("is_active = ?", true)
	q = matchAny(q, term, "name", "description", "CAST(tags AS TEXT)")

	var list []models.Disease
	if err := q.Order("name ASC").Limit(limit).Find(&list).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "diseases", gin.H{"diseases": list, "count": len(list)})
}

type diseaseCategoryStat struct {
	Category         string `json:"category"`
	Count            int64  `json:"count"`
	LowSeverity      int64  `json:"lowSeverity"`
	MediumSeverity   int64  `json:"mediumSeverity"`
	HighSeverity     int64  `json:"highSeverity"`
	CriticalSeverity int64  `json:"criticalSeverity"`
}

func (h *Handlers) diseaseStats(c *gin.Context) (gin.H, error) {
	ctx := c.Request.Context()
	var stats []diseaseCategoryStat
	err := h.db.WithContext(ctx).Model(&models.Disease{}).
		Select(`category, COUNT(*) AS count,
			SUM(CASE WHEN severity = 'low' THEN 1 ELSE 0 END) AS low_severity,
			SUM(CASE WHEN severity = 'medium' THEN 1 ELSE 0 END) AS medium_severity,
			SUM(CASE WHEN severity = 'high' THEN 1 ELSE 0 END) AS high_severity,
			SUM(CASE WHEN severity = 'critical' THEN 1 ELSE 0 END) AS critical_severity`).
		Where("is_active = ?", true).
		Group("category").Order("count DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	var active, inactive int64
	if err := h.db.WithContext(ctx).Model(&models.Disease{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return nil, err
	}
	if err := h.db.WithContext(ctx).Model(&models.Disease{}).Where("is_active = ?", false).Count(&inactive).Error; err != nil {
		return nil, err
	}
	return gin.H{
		"categoryStats":         stats,
		"totalDiseases":         active,
		"totalInactiveDiseases": inactive,
	}, nil
}

// DiseaseStats breaks active entries down by category and severity
// GET /api/v1/diseases/stats
func (h *Handlers) DiseaseStats(c *gin.Context) {
	stats, err := h.diseaseStats(c)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "disease stats", stats)
}

// GetDisease returns one entry
// GET /api/v1/diseases/:id
func (h *Handlers) GetDisease(c *gin.Context) {
	var disease models.Disease
	if err := h.findByID(c.Request.Context(), &disease, c.Param("id"), "disease"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "disease", gin.H{"disease": disease})
}

func duplicateDisease(err error) error {
	if database.IsDuplicate(err) {
		return apperrors.AlreadyExists("disease with this name")
	}
	return err
}

// CreateDisease adds a library entry; admins and approved doctors
// POST /api/v1/diseases
func (h *Handlers) CreateDisease(c *gin.Context) {
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
	var req diseaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if req.Name == nil || req.Description == nil || req.Category == nil {
		util.RespondValidationError(c, "name", "name, description and category are required")
		return
	}
	disease := models.Disease{Severity: "medium", Prevalence: "common", IsActive: true, CreatedByID: author.ID}
	if err := req.apply(&disease); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Create(&disease).Error; err != nil {
		util.RespondWithError(c, duplicateDisease(err))
		return
	}
	util.RespondCreated(c, "disease created", gin.H{"disease": disease})
}

// UpdateDisease edits an entry; admins and approved doctors
// PUT /api/v1/diseases/:id
func (h *Handlers) UpdateDisease(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.moderation.RequireApprovedDoctor(ctx, user.ID, true); err != nil {
		util.RespondWithError(c, err)
		return
	}
	var disease models.Disease
	if err := h.findByID(ctx, &disease, c.Param("id"), "disease"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	var req diseaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if err := req.apply(&disease); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Save(&disease).Error; err != nil {
		util.RespondWithError(c, duplicateDisease(err))
		return
	}
	util.RespondOK(c, "disease updated", gin.H{"disease": disease})
}

// DeleteDisease removes an entry; admins and approved doctors
// DELETE /api/v1/diseases/:id
func (h *Handlers) DeleteDisease(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.moderation.RequireApprovedDoctor(ctx, user.ID, true); err != nil {
		util.RespondWithError(c, err)
		return
	}
	res := h.db.WithContext(ctx).Where("id = ?", c.Param("id")).Delete(&models.Disease{})
	if res.Error != nil {
		util.RespondWithError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "disease")
		return
	}
	util.RespondOK(c, "disease deleted", nil)
}
