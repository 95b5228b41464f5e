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

const excerptLength = 300

type blogRequest struct {
	Title          *string  `json:"title"`
	Content        *string  `json:"content"`
	Excerpt        *string  `json:"excerpt"`
	Category       *string  `json:"category"`
	Tags           []string `json:"tags"`
	Images         []string `json:"images"`
	FeaturedImage  *string  `json:"featuredImage"`
	IsPublished    *bool    `json:"isPublished"`
	IsFeatured     *bool    `json:"isFeatured"`
	References     []string `json:"references"`
	SeoTitle       *string  `json:"seoTitle"`
	SeoDescription *string  `json:"seoDescription"`
}

func (r *blogRequest) apply(b *models.Blog) error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" || len([]rune(title)) > 200 {
			return apperrors.ValidationError("title", "title is required and must be at most 200 characters")
		}
		b.Title = title
	}
	if r.Content != nil {
		content := strings.TrimSpace(*r.Content)
		if content == "" {
			return apperrors.ValidationError("content", "content is required")
		}
		b.Content = content
		b.ReadingTime = util.ReadingTime(content)
	}
	if r.Excerpt != nil {
		if len([]rune(*r.Excerpt)) > excerptLength {
			return apperrors.ValidationError("excerpt", "excerpt must be at most 300 characters")
		}
		b.Excerpt = strings.TrimSpace(*r.Excerpt)
	}
	if b.Excerpt == "" {
		b.Excerpt = util.Excerpt(b.Content, excerptLength)
	}
	if r.Category != nil {
		if !validCategory(models.BlogCategories, *r.Category) {
			return apperrors.ValidationError("category", "invalid category")
		}
		b.Category = *r.Category
	}
	if r.SeoTitle != nil {
		if len([]rune(*r.SeoTitle)) > 60 {
			return apperrors.ValidationError("seoTitle", "seoTitle must be at most 60 characters")
		}
		b.SeoTitle = *r.SeoTitle
	}
	if r.SeoDescription != nil {
		if len([]rune(*r.SeoDescription)) > 160 {
			return apperrors.ValidationError("seoDescription", "seoDescription must be at most 160 characters")
		}
		b.SeoDescription = *r.SeoDescription
	}
	if r.Tags != nil {
		b.Tags = trimList(r.Tags)
	}
	if r.Images != nil {
		b.Images = trimList(r.Images)
	}
	if r.References != nil {
		b.References = trimList(r.References)
	}
	if r.FeaturedImage != nil {
		b.FeaturedImage = *r.FeaturedImage
	}
	if r.IsPublished != nil {
		b.IsPublished = *r.IsPublished
	}
	if r.IsFeatured != nil {
		b.IsFeatured = *r.IsFeatured
	}
	return nil
}

func (h *Handlers) blogResponses(c *gin.Context, blogs []models.Blog) []*dto.BlogResponse {
	ids := make([]string, len(blogs))
	for i := range blogs {
		ids[i] = blogs[i].ID
	}
	states := h.reactionStates(c, models.TargetBlog, ids)
	viewer := util.CurrentUser(c)
	out := make([]*dto.BlogResponse, len(blogs))
	for i := range blogs {
		out[i] = dto.ToBlogResponse(&blogs[i], viewer, dto.ReactionsFor(states, blogs[i].ID))
	}
	return out
}

// publicBlogs scopes q to what a non-admin may read
func publicBlogs(q *gorm.DB) *gorm.DB {
	return q.Where("is_published = ? AND is_approved = ?", true, true)
}

// ListBlogs lists published blogs
// GET /api/v1/blogs?page=&limit=&category=&search=&author=&tag=&sort=
func (h *Handlers) ListBlogs(c *gin.Context) {
	page := util.PageFromQuery(c)
	isAdmin := util.IsAdmin(c)

	scoped := func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.Blog{})
		if !isAdmin {
			q = publicBlogs(q)
		}
		if category := c.Query("category"); category != "" {
			q = q.Where("category = ?", category)
		}
		if author := c.Query("author"); author != "" {
			q = q.Where("author_id = ?", author)
		}
		if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
			// StringList is stored as an array literal on both dialects
			q = matchAny(q, tag, "CAST(tags AS TEXT)")
		}
		return matchAny(q, c.Query("search"), "title", "excerpt", "content")
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var blogs []models.Blog
	if err := scoped().Preload("Author").Order(orderFor(c.Query("sort"))).
		Offset(page.Offset()).Limit(page.Limit).Find(&blogs).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "blogs", gin.H{
		"blogs":      h.blogResponses(c, blogs),
		"pagination": page.Paginate(total),
	})
}

// FeaturedBlogs lists featured published blogs, newest first
// GET /api/v1/blogs/featured?limit=
func (h *Handlers) FeaturedBlogs(c *gin.Context) {
	limit := util.ParseInt(c.Query("limit"), 5)
	if limit < 1 || limit > util.MaxPageSize {
		limit = 5
	}
	var blogs []models.Blog
	err := publicBlogs(h.db.WithContext(c.Request.Context()).Model(&models.Blog{})).
		Where("is_featured = ?", true).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Find(&blogs).Error
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "featured blogs", gin.H{"blogs": h.blogResponses(c, blogs)})
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// BlogCategories returns the published blog count per category
// GET /api/v1/blogs/categories
func (h *Handlers) BlogCategories(c *gin.Context) {
	var counts []categoryCount
	err := publicBlogs(h.db.WithContext(c.Request.Context()).Model(&models.Blog{})).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "blog categories", gin.H{"categories": counts, "available": models.BlogCategories})
}

// CreateBlog publishes a blog; approved doctors and admins only
// POST /api/v1/blogs
func (h *Handlers) CreateBlog(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.moderation.RequireApprovedDoctor(ctx, user.ID, true); err != nil {
		util.RespondWithError(c, err)
		return
	}

	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if req.Title == nil || req.Content == nil || req.Category == nil {
		util.RespondValidationError(c, "title", "title, content and category are required")
		return
	}
	blog := models.Blog{AuthorID: user.ID, IsPublished: true, Moderation: models.Moderation{IsApproved: true}}
	if err := req.apply(&blog); err != nil {
		util.RespondWithError(c, err)
		return
	}
	slug, err := uniqueSlug(ctx, h.db, "blogs", blog.Title, "")
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	blog.Slug = slug

	create := h.db.WithContext(ctx)
	if !blog.IsPublished {
		// is_published defaults to true in the schema; a draft must be written explicitly
		create = create.Select("*")
	}
	if err := create.Create(&blog).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	blog.Author = user
	logger.Log.Info("Blog created", logger.WithUserID(user.ID), zap.String("blog_id", blog.ID))
	util.RespondCreated(c, "blog created", gin.H{"blog": dto.ToBlogResponse(&blog, user, dto.Reactions{})})
}

func (h *Handlers) respondBlog(c *gin.Context, blog *models.Blog) {
	viewer := util.CurrentUser(c)
	if (!blog.IsPublished || !blog.IsApproved) && !canModify(viewer, blog.AuthorID) {
		util.RespondNotFound(c, "blog")
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Model(blog).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to count blog view", err)
	} else {
		blog.Views++
	}
	states := h.reactionStates(c, models.TargetBlog, []string{blog.ID})
	util.RespondOK(c, "blog", gin.H{"blog": dto.ToBlogResponse(blog, viewer, dto.ReactionsFor(states, blog.ID))})
}

// GetBlog returns one blog by id
// GET /api/v1/blogs/:id
func (h *Handlers) GetBlog(c *gin.Context) {
	var blog models.Blog
	if err := h.findByID(c.Request.Context(), &blog, c.Param("id"), "blog", "Author"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.respondBlog(c, &blog)
}

// GetBlogBySlug returns one blog by slug
// GET /api/v1/blogs/slug/:slug
func (h *Handlers) GetBlogBySlug(c *gin.Context) {
	var blog models.Blog
	err := h.db.WithContext(c.Request.Context()).Preload("Author").First(&blog, "slug = ?", c.Param("slug")).Error
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.respondBlog(c, &blog)
}

// UpdateBlog edits a blog; author or admin only
// PUT /api/v1/blogs/:id
func (h *Handlers) UpdateBlog(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var blog models.Blog
	if err := h.findByID(ctx, &blog, c.Param("id"), "blog"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(user, blog.AuthorID) {
		util.RespondForbidden(c, "only the author or an admin can edit this blog")
		return
	}
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	oldTitle := blog.Title
	if req.Content != nil && req.Excerpt == nil {
		// re-derive the excerpt from the new content
		blog.Excerpt = ""
	}
	if err := req.apply(&blog); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if blog.Title != oldTitle {
		slug, err := uniqueSlug(ctx, h.db, "blogs", blog.Title, blog.ID)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		blog.Slug = slug
	}
	if err := h.db.WithContext(ctx).Model(&blog).
		Select("title", "content", "excerpt", "category", "tags", "images", "featured_image", "is_published",
			"is_featured", "reading_time", "references", "seo_title", "seo_description", "slug").
		Updates(&blog).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.findByID(ctx, &blog, blog.ID, "blog", "Author"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	states := h.reactionStates(c, models.TargetBlog, []string{blog.ID})
	util.RespondOK(c, "blog updated", gin.H{"blog": dto.ToBlogResponse(&blog, user, dto.ReactionsFor(states, blog.ID))})
}

// DeleteBlog removes a blog with its comments and reactions
// DELETE /api/v1/blogs/:id
func (h *Handlers) DeleteBlog(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var blog models.Blog
	if err := h.findByID(ctx, &blog, c.Param("id"), "blog"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(user, blog.AuthorID) {
		util.RespondForbidden(c, "only the author or an admin can delete this blog")
		return
	}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := comments.PurgeItems(tx, models.TargetBlog, blog.ID); err != nil {
			return err
		}
		return tx.Delete(&blog).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "blog deleted", nil)
}

// GetUserBlogs lists one author's blogs; drafts only for the author and admins
// GET /api/v1/blogs/user/:userId
func (h *Handlers) GetUserBlogs(c *gin.Context) {
	page := util.PageFromQuery(c)
	authorID := c.Param("userId")
	privileged := canModify(util.CurrentUser(c), authorID)

	scoped := func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.Blog{}).Where("author_id = ?", authorID)
		if !privileged {
			q = publicBlogs(q)
		}
		return q
	}
	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var blogs []models.Blog
	if err := scoped().Preload("Author").Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).Find(&blogs).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "blogs", gin.H{
		"blogs":      h.blogResponses(c, blogs),
		"pagination": page.Paginate(total),
	})
}
