package handlers

import (
	"time"

	"github.com/carecircle/backend/internal/dto"
	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const adminListLimit = 50

type dashboardCounts struct {
	Users    int64 `json:"users"`
	Doctors  int64 `json:"doctors"`
	Patients int64 `json:"patients"`
	Posts    int64 `json:"posts"`
	Blogs    int64 `json:"blogs"`
	Comments int64 `json:"comments"`
	Events   int64 `json:"events"`
}

func (h *Handlers) countDashboard(c *gin.Context, since *time.Time) (*dashboardCounts, error) {
	var out dashboardCounts
	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dest  *int64
	}{
		{&models.User{}, "", nil, &out.Users},
		{&models.User{}, "role = ?", []interface{}{models.RoleDoctor}, &out.Doctors},
		{&models.User{}, "role = ?", []interface{}{models.RolePatient}, &out.Patients},
		{&models.Post{}, "", nil, &out.Posts},
		{&models.Blog{}, "", nil, &out.Blogs},
		{&models.Comment{}, "", nil, &out.Comments},
		{&models.Event{}, "", nil, &out.Events},
	}
	for _, q := range counts {
		db := h.db.WithContext(c.Request.Context()).Model(q.model)
		if q.where != "" {
			db = db.Where(q.where, q.args...)
		}
		if since != nil {
			db = db.Where("created_at >= ?", *since)
		}
		if err := db.Count(q.dest).Error; err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Dashboard returns platform totals and the last seven days of growth
// GET /api/v1/admin/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	totals, err := h.countDashboard(c, nil)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	since := time.Now().UTC().AddDate(0, 0, -7)
	recent, err := h.countDashboard(c, &since)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	var pendingDoctors, pendingEvents, reported int64
	if err := h.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND doctor_approval_status = ?", models.RoleDoctor, models.ApprovalPending).
		Count(&pendingDoctors).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ?", models.EventPending).Count(&pendingEvents).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	for _, model := range []interface{}{&models.Post{}, &models.Blog{}, &models.Comment{}, &models.EventPost{}} {
		var n int64
		if err := h.db.WithContext(ctx).Model(model).Where("is_reported = ?", true).Count(&n).Error; err != nil {
			util.RespondWithError(c, err)
			return
		}
		reported += n
	}

	util.RespondOK(c, "dashboard", gin.H{
		"totals":     totals,
		"last7Days":  recent,
		"moderation": gin.H{"pendingDoctors": pendingDoctors, "pendingEvents": pendingEvents, "reported": reported},
	})
}

// CategoryStats counts posts and blogs per category
// GET /api/v1/admin/stats/categories
func (h *Handlers) CategoryStats(c *gin.Context) {
	ctx := c.Request.Context()
	var posts, blogs []categoryCount
	if err := h.db.WithContext(ctx).Model(&models.Post{}).
		Select("category, COUNT(*) AS count").Group("category").Order("count DESC").Scan(&posts).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.Blog{}).
		Select("category, COUNT(*) AS count").Group("category").Order("count DESC").Scan(&blogs).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "category stats", gin.H{"posts": posts, "blogs": blogs})
}

// AdminDiseaseStats is DiseaseStats under the admin tree
// GET /api/v1/admin/stats/diseases
func (h *Handlers) AdminDiseaseStats(c *gin.Context) {
	h.DiseaseStats(c)
}

// AdminUpdateUser changes account flags and role
// PUT /api/v1/admin/users/:id {isActive?, isVerified?, role?}
func (h *Handlers) AdminUpdateUser(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req struct {
		IsActive   *bool        `json:"isActive"`
		IsVerified *bool        `json:"isVerified"`
		Role       *models.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	var user models.User
	if err := h.findByID(ctx, &user, c.Param("id"), "user"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if user.ID == admin.ID && ((req.IsActive != nil && !*req.IsActive) || (req.Role != nil && *req.Role != models.RoleAdmin)) {
		util.RespondBadRequest(c, "you cannot deactivate or demote yourself")
		return
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			util.RespondWithError(c, apperrors.ValidationError("role", "role must be patient, doctor or admin"))
			return
		}
		user.SetRole(*req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}
	err := h.db.WithContext(ctx).Model(&user).
		Select("role", "is_active", "is_verified",
			"doctor_approval_status", "doctor_approval_date", "doctor_approved_by", "doctor_rejection_reason",
			"doctor_location", "doctor_specialization", "doctor_hospital", "doctor_experience").
		Updates(&user).Error
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	logger.Log.Info("User updated by admin",
		logger.WithUserID(admin.ID),
		zap.String("target_user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Bool("active", user.IsActive),
	)
	util.RespondOK(c, "user updated", gin.H{"user": dto.ToUserDetailResponse(&user)})
}

// approvalHandler sets isApproved on a moderated item
// PUT /api/v1/admin/{posts,comments}/:id/approve {isApproved}
func (h *Handlers) approvalHandler(t models.TargetType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IsApproved *bool `json:"isApproved" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBindError(c, err)
			return
		}
		id := c.Param("id")
		if err := h.moderation.SetApproval(c.Request.Context(), t, id, *req.IsApproved); err != nil {
			util.RespondWithError(c, err)
			return
		}
		logger.Log.Info("Content approval changed",
			logger.WithUserID(util.CurrentUserID(c)),
			logger.WithTarget(string(t), id),
			zap.Bool("approved", *req.IsApproved),
		)
		msg := "content unapproved"
		if *req.IsApproved {
			msg = "content approved"
		}
		util.RespondOK(c, msg, gin.H{"id": id, "isApproved": *req.IsApproved})
	}
}

func (h *Handlers) ApprovePost(c *gin.Context)    { h.approvalHandler(models.TargetPost)(c) }
func (h *Handlers) ApproveComment(c *gin.Context) { h.approvalHandler(models.TargetComment)(c) }

func (h *Handlers) moderationQueue(c *gin.Context, where string, args ...interface{}) (gin.H, error) {
	ctx := c.Request.Context()
	admin := util.CurrentUser(c)
	latest := func(db *gorm.DB) *gorm.DB {
		return db.WithContext(ctx).Preload("Author").Where(where, args...).Order("updated_at DESC").Limit(adminListLimit)
	}

	var posts []models.Post
	if err := latest(h.db).Find(&posts).Error; err != nil {
		return nil, err
	}
	var blogs []models.Blog
	if err := latest(h.db).Find(&blogs).Error; err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := latest(h.db).Find(&comments).Error; err != nil {
		return nil, err
	}
	var eventPosts []models.EventPost
	if err := latest(h.db).Find(&eventPosts).Error; err != nil {
		return nil, err
	}

	postOut := make([]*dto.PostResponse, len(posts))
	for i := range posts {
		postOut[i] = dto.ToPostResponse(&posts[i], admin, dto.Reactions{})
	}
	blogOut := make([]*dto.BlogResponse, len(blogs))
	for i := range blogs {
		blogOut[i] = dto.ToBlogResponse(&blogs[i], admin, dto.Reactions{})
	}
	commentOut := make([]*dto.CommentResponse, len(comments))
	for i := range comments {
		commentOut[i] = dto.ToCommentResponse(&comments[i], admin, nil)
	}
	eventPostOut := make([]*dto.EventPostResponse, len(eventPosts))
	for i := range eventPosts {
		eventPostOut[i] = dto.ToEventPostResponse(&eventPosts[i], admin, dto.Reactions{})
	}
	return gin.H{
		"posts":      postOut,
		"blogs":      blogOut,
		"comments":   commentOut,
		"eventPosts": eventPostOut,
	}, nil
}

// ReportedContent lists reported items of every content type
// GET /api/v1/admin/reported
func (h *Handlers) ReportedContent(c *gin.Context) {
	data, err := h.moderationQueue(c, "is_reported = ?", true)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "reported content", data)
}

// PendingContent lists unapproved items, pending doctors, and pending events
// GET /api/v1/admin/pending
func (h *Handlers) PendingContent(c *gin.Context) {
	data, err := h.moderationQueue(c, "is_approved = ?", false)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	doctors, err := h.moderation.PendingDoctors(ctx, adminListLimit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	var pendingEvents []models.Event
	if err := h.db.WithContext(ctx).Preload("Author").Where("status = ?", models.EventPending).
		Order("created_at ASC").Limit(adminListLimit).Find(&pendingEvents).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	data["doctors"] = dto.ToUserResponses(doctors)
	data["events"] = h.eventResponses(c, pendingEvents)
	util.RespondOK(c, "pending content", data)
}

// PendingDoctors lists doctors awaiting approval, oldest first
// GET /api/v1/admin/doctors/pending
func (h *Handlers) PendingDoctors(c *gin.Context) {
	doctors, err := h.moderation.PendingDoctors(c.Request.Context(), util.PageFromQueryWithDefault(c, adminListLimit).Limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	out := make([]*dto.UserDetailResponse, len(doctors))
	for i := range doctors {
		out[i] = dto.ToUserDetailResponse(&doctors[i])
	}
	util.RespondOK(c, "pending doctors", gin.H{"doctors": out, "count": len(out)})
}

// ApproveDoctor grants a pending doctor publishing rights
// PUT /api/v1/admin/doctors/:id/approve
func (h *Handlers) ApproveDoctor(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	doctor, err := h.moderation.ApproveDoctor(c.Request.Context(), c.Param("id"), admin.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "doctor approved", gin.H{"user": dto.ToUserDetailResponse(doctor)})
}

// RejectDoctor denies a pending doctor with a reason
// PUT /api/v1/admin/doctors/:id/reject {reason}
func (h *Handlers) RejectDoctor(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	doctor, err := h.moderation.RejectDoctor(c.Request.Context(), c.Param("id"), admin.ID, req.Reason)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "doctor rejected", gin.H{"user": dto.ToUserDetailResponse(doctor)})
}
