package handlers

import (
	"context"
	"time"

	"github.com/carecircle/backend/internal/cache"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
)

const (
	publicStatsKey = "stats:public"
	publicStatsTTL = 5 * time.Minute
)

type PublicStats struct {
	Users   int64 `json:"users"`
	Doctors int64 `json:"doctors"`
	Posts   int64 `json:"posts"`
	Blogs   int64 `json:"blogs"`
	Events  int64 `json:"events"`
}

func (h *Handlers) loadPublicStats(ctx context.Context) (PublicStats, error) {
	var s PublicStats
	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dest  *int64
	}{
		{&models.User{}, "is_active = ?", []interface{}{true}, &s.Users},
		{&models.User{}, "role = ? AND doctor_approval_status = ? AND is_active = ?",
			[]interface{}{models.RoleDoctor, models.ApprovalApproved, true}, &s.Doctors},
		{&models.Post{}, "is_approved = ?", []interface{}{true}, &s.Posts},
		{&models.Blog{}, "is_published = ? AND is_approved = ?", []interface{}{true, true}, &s.Blogs},
		{&models.Event{}, "status IN ?", []interface{}{publicEventStatuses}, &s.Events},
	}
	for _, q := range counts {
		if err := h.db.WithContext(ctx).Model(q.model).Where(q.where, q.args...).Count(q.dest).Error; err != nil {
			return s, err
		}
	}
	return s, nil
}

// PublicStatsHandler serves landing-page counters, cached for five minutes
// GET /api/v1/stats/public
func (h *Handlers) PublicStatsHandler(c *gin.Context) {
	stats, err := cache.GetOrLoad(c.Request.Context(), h.cache, "public_stats", publicStatsKey, publicStatsTTL, h.loadPublicStats)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "public stats", gin.H{"stats": stats})
}
