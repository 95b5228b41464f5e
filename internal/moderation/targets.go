package moderation

import (
	"context"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/models"
	"gorm.io/gorm"
)

var targetTables = map[models.TargetType]string{
	models.TargetPost:      "posts",
	models.TargetBlog:      "blogs",
	models.TargetEventPost: "event_posts",
	models.TargetComment:   "comments",
	models.TargetEvent:     "events",
}

// Target is the slice of a content row the moderation flows need
type Target struct {
	ID       string
	AuthorID string
	// comment-only: the item the comment belongs to
	TargetID string
}

func TableFor(t models.TargetType) (string, error) {
	table, ok := targetTables[t]
	if !ok {
		return "", apperrors.ValidationError("targetType", "unsupported target type")
	}
	return table, nil
}

// reactable reports whether t carries like/dislike counters
func reactable(t models.TargetType) bool {
	return t != models.TargetEvent
}

func LoadTarget(ctx context.Context, tx *gorm.DB, t models.TargetType, id string) (*Target, error) {
	table, err := TableFor(t)
	if err != nil {
		return nil, err
	}

	columns := []string{"id", "author_id"}
	if t == models.TargetComment {
		columns = append(columns, "target_id")
	}

	var row Target
	res := tx.WithContext(ctx).Table(table).Select(columns).Where("id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound(string(t))
	}
	return &row, nil
}
