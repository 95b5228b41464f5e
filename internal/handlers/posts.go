package handlers

import (
	"strings"

	"github.com/carecircle/backend/internal/comments"
	"github.com/carecircle/backend/internal/dto"
	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type postRequest struct {
	Title         *string  `json:"title"`
	Content       *string  `json:"content"`
	Category      *string  `json:"category"`
	Tags          []string `json:"tags"`
	Images        []string `json:"images"`
	IsAnonymous   *bool    `json:"isAnonymous"`
	IsSensitive   *bool    `json:"isSensitive"`
	MedicalAdvice *bool    `json:"medicalAdvice"`
	Symptoms      []string `json:"symptoms"`
	Treatments    []string `json:"treatments"`
}

func (r *postRequest) apply(p *models.Post) error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" || len([]rune(title)) > 200 {
			return apperrors.ValidationError("title", "title is required and must be at most 200 characters")
		}
		p.Title = title
	}
	if r.Content != nil {
		content := strings.TrimSpace(*r.Content)
		if content == "" || len([]rune(content)) > 5000 {
			return apperrors.ValidationError("content", "content is required and must be at most 5000 characters")
		}
		p.Content = content
	}
	if r.Category != nil {
		if !validCategory(models.PostCategories, *r.Category) {
			return apperrors.ValidationError("category", "invalid category")
		}
		p.Category = *r.Category
	}
	if r.Tags != nil {
		p.Tags = trimList(r.Tags)
	}
	if r.Images != nil {
		p.Images = trimList(r.Images)
	}
	if r.Symptoms != nil {
		p.Symptoms = trimList(r.Symptoms)
	}
	if r.Treatments != nil {
		p.Treatments = trimList(r.Treatments)
	}
	if r.IsAnonymous != nil {
		p.IsAnonymous = *r.IsAnonymous
	}
	if r.IsSensitive != nil {
		p.IsSensitive = *r.IsSensitive
	}
	if r.MedicalAdvice != nil {
		p.MedicalAdvice = *r.MedicalAdvice
	}
	return nil
}

func (h *Handlers) postResponses(c *gin.Context, posts []models.Post) []*dto.PostResponse {
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	states := h.reactionStates(c, models.TargetPost, ids)
	viewer := util.CurrentUser(c)
	out := make([]*dto.PostResponse, len(posts))
	for i := range posts {
		out[i] = dto.ToPostResponse(&posts[i], viewer, dto.ReactionsFor(states, posts[i].ID))
	}
	return out
}

// ListPosts lists approved posts with filtering and sorting
// GET /api/v1/posts?page=&limit=&category=&search=&author=&sort=
func (h *Handlers) ListPosts(c *gin.Context) {
	page := util.PageFromQuery(c)
	isAdmin := util.IsAdmin(c)

	scoped := func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.Post{})
		if !isAdmin {
			q = q.Where("is_approved = ?", true)
		}
		if category := c.Query("category"); category != "" {
			q = q.Where("category = ?", category)
		}
		if author := c.Query("author"); author != "" {
			q = q.Where("author_id = ? AND is_anonymous = ?", author, false)
		}
		return matchAny(q, c.Query("search"), "title", "content")
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var posts []models.Post
	if err := scoped().Preload("Author").Order(orderFor(c.Query("sort"))).
		Offset(page.Offset()).Limit(page.Limit).Find(&posts).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "posts", gin.H{
		"posts":      h.postResponses(c, posts),
		"pagination": page.Paginate(total),
	})
}

// CreatePost creates a post; medical advice requires an approved doctor
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if req.Title == nil || req.Content == nil || req.Category == nil {
		util.RespondValidationError(c, "title", "title, content and category are required")
		return
	}

	post := models.Post{AuthorID: user.ID, Moderation: models.Moderation{IsApproved: true}}
	if err := req.apply(&post); err != nil {
		util.RespondWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	if post.MedicalAdvice {
		if _, err := h.moderation.RequireApprovedDoctor(ctx, user.ID, false); err != nil {
			util.RespondWithError(c, err)
			return
		}
	}

	slug, err := uniqueSlug(ctx, h.db, "posts", post.Title, "")
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	post.Slug = slug
	if err := h.db.WithContext(ctx).Create(&post).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	post.Author = user

	logger.Log.Info("Post created", logger.WithUserID(user.ID), zap.String("post_id", post.ID))
	util.RespondCreated(c, "post created", gin.H{"post": dto.ToPostResponse(&post, user, dto.Reactions{})})
}

// GetPost returns one post and counts the view
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	var post models.Post
	if err := h.findByID(ctx, &post, c.Param("id"), "post", "Author"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	viewer := util.CurrentUser(c)
	if !post.IsApproved && !canModify(viewer, post.AuthorID) {
		util.RespondNotFound(c, "post")
		return
	}

	if err := h.db.WithContext(ctx).Model(&post).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to count post view", err)
	} else {
		post.Views++
	}

	states := h.reactionStates(c, models.TargetPost, []string{post.ID})
	util.RespondOK(c, "post", gin.H{"post": dto.ToPostResponse(&post, viewer, dto.ReactionsFor(states, post.ID))})
}

// UpdatePost edits a post; author or admin only
// PUT /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var post models.Post
	if err := h.findByID(ctx, &post, c.Param("id"), "post"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(user, post.AuthorID) {
		util.RespondForbidden(c, "only the author or an admin can edit this post")
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	wasAdvice, oldTitle := post.MedicalAdvice, post.Title
	if err := req.apply(&post); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if post.MedicalAdvice && !wasAdvice {
		if _, err := h.moderation.RequireApprovedDoctor(ctx, post.AuthorID, false); err != nil {
			util.RespondWithError(c, err)
			return
		}
	}
	if post.Title != oldTitle {
		slug, err := uniqueSlug(ctx, h.db, "posts", post.Title, post.ID)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		post.Slug = slug
	}

	// counters and moderation flags are owned by the moderation service
	if err := h.db.WithContext(ctx).Model(&post).
		Select("title", "content", "category", "tags", "images", "is_anonymous", "is_sensitive",
			"medical_advice", "symptoms", "treatments", "slug").
		Updates(&post).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.findByID(ctx, &post, post.ID, "post", "Author"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	states := h.reactionStates(c, models.TargetPost, []string{post.ID})
	util.RespondOK(c, "post updated", gin.H{"post": dto.ToPostResponse(&post, user, dto.ReactionsFor(states, post.ID))})
}

// DeletePost removes a post with its comments and reactions
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var post models.Post
	if err := h.findByID(ctx, &post, c.Param("id"), "post"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(user, post.AuthorID) {
		util.RespondForbidden(c, "only the author or an admin can delete this post")
		return
	}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := comments.PurgeItems(tx, models.TargetPost, post.ID); err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "post deleted", nil)
}

// GetUserPosts lists one user's posts. Anonymous posts only appear to the
// author and admins.
// GET /api/v1/posts/user/:userId
func (h *Handlers) GetUserPosts(c *gin.Context) {
	page := util.PageFromQuery(c)
	authorID := c.Param("userId")
	viewer := util.CurrentUser(c)
	privileged := canModify(viewer, authorID)

	scoped := func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.Post{}).Where("author_id = ?", authorID)
		if !privileged {
			q = q.Where("is_approved = ? AND is_anonymous = ?", true, false)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var posts []models.Post
	if err := scoped().Preload("Author").Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).Find(&posts).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "posts", gin.H{
		"posts":      h.postResponses(c, posts),
		"pagination": page.Paginate(total),
	})
}
