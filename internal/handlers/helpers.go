package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxSlugAttempts = 50

var sortOrders = map[string]string{
	"":        "created_at DESC",
	"newest":  "created_at DESC",
	"oldest":  "created_at ASC",
	"popular": "like_count DESC, created_at DESC",
	"views":   "views DESC, created_at DESC",
}

// orderFor maps a sort query value to a fixed ORDER BY clause
func orderFor(sort string) string {
	if order, ok := sortOrders[sort]; ok {
		return order
	}
	return sortOrders[""]
}

// likePattern builds a case-insensitive LIKE operand for LOWER(column)
func likePattern(term string) string {
	term = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(strings.ToLower(strings.TrimSpace(term)))
	return "%" + term + "%"
}

// uniqueSlug derives a slug from title that is unused in table, appending
// -1, -2, ... on collision
func uniqueSlug(ctx context.Context, db *gorm.DB, table, title, excludeID string) (string, error) {
	base := util.Slugify(title)
	slug := base
	for i := 1; i <= maxSlugAttempts; i++ {
		var count int64
		q := db.WithContext(ctx).Table(table).Where("slug = ?", slug)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", apperrors.Conflict("could not derive a unique slug")
}

// canModify reports whether actor may edit or delete content owned by ownerID
func canModify(actor *models.User, ownerID string) bool {
	return actor != nil && (actor.ID == ownerID || actor.IsAdmin())
}

// reactionStates loads the caller's reactions for ids, logging rather than
// failing the request on error
func (h *Handlers) reactionStates(c *gin.Context, t models.TargetType, ids []string) map[string]models.ReactionKind {
	userID := util.CurrentUserID(c)
	if userID == "" || len(ids) == 0 {
		return nil
	}
	states, err := h.moderation.States(c.Request.Context(), t, userID, ids)
	if err != nil {
		logger.WarnWithFields("Failed to load reaction states", err)
		return nil
	}
	return states
}

func validCategory(categories []string, category string) bool {
	return util.Contains(categories, category)
}

// findByID loads dest by primary key, translating a miss into NotFound
func (h *Handlers) findByID(ctx context.Context, dest interface{}, id, resource string, preloads ...string) error {
	q := h.db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(resource)
		}
		return err
	}
	return nil
}

func trimList(values []string) models.StringList {
	out := make(models.StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// matchAny filters q to rows where any of columns contains term, ignoring case
func matchAny(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := likePattern(term)
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// bindOptionalJSON binds a JSON body that the client may omit entirely
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
