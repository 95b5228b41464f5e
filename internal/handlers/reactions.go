package handlers

import (
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// likeHandler toggles the caller's like on the target named by param
// POST /api/v1/{posts,blogs,comments,event-posts}/:id/like
func (h *Handlers) likeHandler(t models.TargetType, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		state, err := h.moderation.ToggleLike(c.Request.Context(), t, c.Param(param), user.ID)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		msg := "like removed"
		if state.Liked {
			msg = "liked"
		}
		util.RespondOK(c, msg, gin.H{
			"isLiked":      state.Liked,
			"isDisliked":   state.Disliked,
			"likeCount":    state.LikeCount,
			"dislikeCount": state.DislikeCount,
		})
	}
}

// dislikeHandler toggles the caller's dislike
// POST /api/v1/{posts,blogs,comments,event-posts}/:id/dislike
func (h *Handlers) dislikeHandler(t models.TargetType, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		state, err := h.moderation.ToggleDislike(c.Request.Context(), t, c.Param(param), user.ID)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		msg := "dislike removed"
		if state.Disliked {
			msg = "disliked"
		}
		util.RespondOK(c, msg, gin.H{
			"isLiked":      state.Liked,
			"isDisliked":   state.Disliked,
			"likeCount":    state.LikeCount,
			"dislikeCount": state.DislikeCount,
		})
	}
}

type reportRequest struct {
	Reason      models.ReportReason `json:"reason"`
	Description string              `json:"description"`
}

// reportHandler files the caller's report against the target
// POST /api/v1/{posts,blogs,comments,event-posts,events}/:id/report
func (h *Handlers) reportHandler(t models.TargetType, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}
		var req reportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBindError(c, err)
			return
		}
		result, err := h.moderation.Report(c.Request.Context(), t, c.Param(param), user.ID, req.Reason, req.Description)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		util.RespondOK(c, "report submitted", gin.H{
			"reportCount": result.ReportCount,
			"isReported":  result.IsReported,
		})
	}
}
