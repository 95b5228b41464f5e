package moderation

import (
	"context"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/notifications"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReactionState is a user's reaction on one target after a toggle
type ReactionState struct {
	Liked        bool `json:"isLiked"`
	Disliked     bool `json:"isDisliked"`
	LikeCount    int  `json:"likeCount"`
	DislikeCount int  `json:"dislikeCount"`
}

// ToggleLike adds a like (replacing a dislike) or removes an existing like
func (s *Service) ToggleLike(ctx context.Context, t models.TargetType, targetID, userID string) (*ReactionState, error) {
	return s.toggle(ctx, t, targetID, userID, models.ReactionLike)
}

// ToggleDislike adds a dislike (replacing a like) or removes an existing dislike
func (s *Service) ToggleDislike(ctx context.Context, t models.TargetType, targetID, userID string) (*ReactionState, error) {
	return s.toggle(ctx, t, targetID, userID, models.ReactionDislike)
}

func counterColumn(kind models.ReactionKind) string {
	if kind == models.ReactionLike {
		return "like_count"
	}
	return "dislike_count"
}

func (s *Service) toggle(ctx context.Context, t models.TargetType, targetID, userID string, kind models.ReactionKind) (*ReactionState, error) {
	if !reactable(t) {
		return nil, apperrors.ValidationError("targetType", "target does not support reactions")
	}
	table, err := TableFor(t)
	if err != nil {
		return nil, err
	}

	var (
		item     *Target
		state    ReactionState
		wasLiked bool
		result   string
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = LoadTarget(ctx, tx, t, targetID)
		if err != nil {
			return err
		}

		var existing models.Reaction
		res := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, t, targetID).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}

		deltas := map[string]int{}
		switch {
		case res.RowsAffected == 0:
			if err := tx.Create(&models.Reaction{UserID: userID, TargetType: t, TargetID: targetID, Kind: kind}).Error; err != nil {
				return err
			}
			deltas[counterColumn(kind)] = 1
			result = "added"
		case existing.Kind == kind:
			wasLiked = kind == models.ReactionLike
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			deltas[counterColumn(kind)] = -1
			result = "removed"
		default:
			prev := existing.Kind
			wasLiked = prev == models.ReactionLike
			if err := tx.Model(&models.Reaction{}).Where("id = ?", existing.ID).Update("kind", kind).Error; err != nil {
				return err
			}
			deltas[counterColumn(prev)] = -1
			deltas[counterColumn(kind)] = 1
			result = "switched"
		}

		updates := make(map[string]interface{}, len(deltas))
		for col, d := range deltas {
			updates[col] = gorm.Expr(col+" + ?", d)
		}
		if err := tx.Table(table).Where("id = ?", targetID).UpdateColumns(updates).Error; err != nil {
			return err
		}

		return tx.Table(table).Select("like_count", "dislike_count").Where("id = ?", targetID).
			Row().Scan(&state.LikeCount, &state.DislikeCount)
	})
	if err != nil {
		return nil, err
	}

	state.Liked = kind == models.ReactionLike && result != "removed"
	state.Disliked = kind == models.ReactionDislike && result != "removed"
	metrics.RecordReaction(string(t), string(kind), result)

	if state.Liked && !wasLiked {
		s.notifyLike(t, item, userID)
	}
	return &state, nil
}

// notifyLike fans out a like on the not-liked -> liked transition only
func (s *Service) notifyLike(t models.TargetType, item *Target, userID string) {
	if s.notifier == nil || item.AuthorID == userID {
		return
	}

	req := notifications.Request{
		RecipientID: item.AuthorID,
		SenderID:    userID,
		Type:        models.NotifyLikePost,
	}
	id := item.ID
	if t == models.TargetComment {
		req.Type = models.NotifyLikeComment
		req.CommentID = &id
		if item.TargetID != "" {
			postID := item.TargetID
			req.PostID = &postID
		}
	} else {
		req.PostID = &id
	}

	if !s.notifier.Notify(req) {
		logger.Log.Debug("Like notification not queued", zap.String("type", string(req.Type)), logger.WithTarget(string(t), id))
	}
}

// States returns the caller's reaction kind for each of targetIDs
func (s *Service) States(ctx context.Context, t models.TargetType, userID string, targetIDs []string) (map[string]models.ReactionKind, error) {
	states := make(map[string]models.ReactionKind, len(targetIDs))
	if userID == "" || len(targetIDs) == 0 {
		return states, nil
	}

	var reactions []models.Reaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, t, targetIDs).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	for _, r := range reactions {
		states[r.TargetID] = r.Kind
	}
	return states, nil
}

// PurgeTarget deletes reactions and reports attached to deleted targets
func PurgeTarget(tx *gorm.DB, t models.TargetType, targetIDs ...string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	if err := tx.Where("target_type = ? AND target_id IN ?", t, targetIDs).Delete(&models.Reaction{}).Error; err != nil {
		return err
	}
	return tx.Where("target_type = ? AND target_id IN ?", t, targetIDs).Delete(&models.ContentReport{}).Error
}
