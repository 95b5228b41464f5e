package handlers

import (
	"github.com/carecircle/backend/internal/comments"
	"github.com/carecircle/backend/internal/dto"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Content     string `json:"content"`
	PostType    string `json:"postType"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func (h *Handlers) commentResponses(c *gin.Context, list []models.Comment) []*dto.CommentResponse {
	var ids []string
	for i := range list {
		ids = append(ids, list[i].ID)
		for j := range list[i].Replies {
			ids = append(ids, list[i].Replies[j].ID)
		}
	}
	states := h.reactionStates(c, models.TargetComment, ids)
	viewer := util.CurrentUser(c)
	out := make([]*dto.CommentResponse, len(list))
	for i := range list {
		out[i] = dto.ToCommentResponse(&list[i], viewer, states)
	}
	return out
}

// CreateComment adds a top-level comment to a post, blog or event post
// POST /api/v1/comments/:id
func (h *Handlers) CreateComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	t, err := comments.ParseTargetType(req.PostType)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), t, c.Param("id"), comments.CreateInput{
		AuthorID:    user.ID,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
		Sender:      user,
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondCreated(c, "comment created", gin.H{"comment": dto.ToCommentResponse(comment, user, nil)})
}

// ListComments lists the root comments on an item with their replies
// GET /api/v1/comments/:id?postType=&page=&limit=
func (h *Handlers) ListComments(c *gin.Context) {
	t, err := comments.ParseTargetType(c.Query("postType"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	page := util.PageFromQueryWithDefault(c, 20)
	result, err := h.comments.List(c.Request.Context(), t, c.Param("id"), page.Offset(), page.Limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "comments", gin.H{
		"comments":   h.commentResponses(c, result.Comments),
		"pagination": page.Paginate(result.Total),
	})
}

// ReplyToComment answers a comment; replies always attach to the root
// POST /api/v1/comments/:id/reply
func (h *Handlers) ReplyToComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	reply, err := h.comments.Reply(c.Request.Context(), c.Param("id"), comments.CreateInput{
		AuthorID:    user.ID,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
		Sender:      user,
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondCreated(c, "reply created", gin.H{"comment": dto.ToCommentResponse(reply, user, nil)})
}

// UpdateComment edits a comment; author only
// PUT /api/v1/comments/:id
func (h *Handlers) UpdateComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), user.ID, c.Param("id"), req.Content)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "comment updated", gin.H{"comment": dto.ToCommentResponse(comment, user, nil)})
}

// DeleteComment removes a comment and, for a root, its replies
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	removed, err := h.comments.Delete(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "comment deleted", gin.H{"deleted": removed})
}

// ListAllComments is the admin comment listing
// GET /api/v1/comments?reported=true
func (h *Handlers) ListAllComments(c *gin.Context) {
	page := util.PageFromQueryWithDefault(c, 20)
	reported := util.ParseBool(c.Query("reported"))
	result, err := h.comments.ListAll(c.Request.Context(), reported != nil && *reported, page.Offset(), page.Limit)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "comments", gin.H{
		"comments":   h.commentResponses(c, result.Comments),
		"pagination": page.Paginate(result.Total),
	})
}
