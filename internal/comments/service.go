// Package comments implements two-level comment threads on posts, blogs and
// event posts.
package comments

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/moderation"
	"github.com/carecircle/backend/internal/notifications"
	"gorm.io/gorm"
)

const maxContentLength = 2000

type Service struct {
	db       *gorm.DB
	notifier notifications.Notifier
}

// NewService wires comments to db; notifier may be nil
func NewService(db *gorm.DB, notifier notifications.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// CreateInput carries a new top-level comment or reply
type CreateInput struct {
	AuthorID    string
	Content     string
	IsAnonymous bool
	// Sender is used for the real-time push; optional
	Sender *models.User
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.ValidationError("content", "content is required")
	}
	if len([]rune(content)) > maxContentLength {
		return "", apperrors.ValidationError("content", "content must be at most 2000 characters")
	}
	return content, nil
}

// ParseTargetType maps a postType value to a commentable target, defaulting to Post
func ParseTargetType(postType string) (models.TargetType, error) {
	if postType == "" {
		return models.TargetPost, nil
	}
	t := models.TargetType(postType)
	if !t.Commentable() {
		return "", apperrors.ValidationError("postType", "postType must be Post, Blog or EventPost")
	}
	return t, nil
}

func bumpCommentCount(tx *gorm.DB, t models.TargetType, targetID string, delta int) error {
	table, err := moderation.TableFor(t)
	if err != nil {
		return err
	}
	return tx.Table(table).Where("id = ?", targetID).
		UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count + ? < 0 THEN 0 ELSE comment_count + ? END", delta, delta)).Error
}

// Create attaches a root comment to a content item and notifies its author
func (s *Service) Create(ctx context.Context, t models.TargetType, targetID string, in CreateInput) (*models.Comment, error) {
	if !t.Commentable() {
		return nil, apperrors.ValidationError("postType", "postType must be Post, Blog or EventPost")
	}
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TargetType:  t,
		TargetID:    targetID,
		AuthorID:    in.AuthorID,
		Content:     content,
		IsAnonymous: in.IsAnonymous,
	}

	var item *moderation.Target
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = moderation.LoadTarget(ctx, tx, t, targetID)
		if err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return bumpCommentCount(tx, t, targetID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.notify(item.AuthorID, in, models.NotifyCommentPost, t, targetID, comment.ID)
	return s.reload(ctx, comment.ID)
}

// Reply attaches a reply to the root of the thread containing commentID.
// The replied-to comment's author gets reply_comment, and the content item's
// author gets comment_post when they are a different user.
func (s *Service) Reply(ctx context.Context, commentID string, in CreateInput) (*models.Comment, error) {
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}

	var (
		parent models.Comment
		reply  *models.Comment
		item   *moderation.Target
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&parent, "id = ?", commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("comment")
			}
			return err
		}

		rootID := parent.ID
		if parent.ParentID != nil {
			rootID = *parent.ParentID
		}

		reply = &models.Comment{
			TargetType:  parent.TargetType,
			TargetID:    parent.TargetID,
			AuthorID:    in.AuthorID,
			Content:     content,
			IsAnonymous: in.IsAnonymous,
			ParentID:    &rootID,
		}
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", rootID).
			UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error; err != nil {
			return err
		}
		if err := bumpCommentCount(tx, parent.TargetType, parent.TargetID, 1); err != nil {
			return err
		}

		var err error
		item, err = moderation.LoadTarget(ctx, tx, parent.TargetType, parent.TargetID)
		if apperrors.HasCode(err, apperrors.ErrNotFound) {
			// orphaned thread: the reply stands, the item author is not notified
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(parent.AuthorID, in, models.NotifyReplyComment, parent.TargetType, parent.TargetID, reply.ID)
	if item != nil && item.AuthorID != parent.AuthorID {
		s.notify(item.AuthorID, in, models.NotifyCommentPost, parent.TargetType, parent.TargetID, reply.ID)
	}
	return s.reload(ctx, reply.ID)
}

func (s *Service) notify(recipientID string, in CreateInput, kind models.NotificationType, t models.TargetType, targetID, commentID string) {
	if s.notifier == nil {
		return
	}
	req := notifications.Request{
		RecipientID: recipientID,
		SenderID:    in.AuthorID,
		Type:        kind,
		CommentID:   &commentID,
		SenderInfo:  notifications.SenderInfoFor(in.Sender),
	}
	if t == models.TargetPost || t == models.TargetBlog || t == models.TargetEventPost {
		req.PostID = &targetID
	}
	s.notifier.Notify(req)
}

func (s *Service) reload(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Get loads a comment with its author
func (s *Service) Get(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.reload(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("comment")
	}
	return comment, err
}

// Update changes a comment's content; only its author may edit it
func (s *Service) Update(ctx context.Context, actorID, commentID, content string) (*models.Comment, error) {
	comment, err := s.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actorID {
		return nil, apperrors.Forbidden("only the author can edit this comment")
	}
	content, err = validateContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(comment).Update("content", content).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment. A root takes its replies with it; a reply is
// detached from its root.
func (s *Service) Delete(ctx context.Context, actor *models.User, commentID string) (int, error) {
	var removed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, "id = ?", commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("comment")
			}
			return err
		}
		if comment.AuthorID != actor.ID && !actor.IsAdmin() {
			return apperrors.Forbidden("only the author or an admin can delete this comment")
		}

		if comment.ParentID != nil {
			if err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentID).
				UpdateColumn("reply_count", gorm.Expr("CASE WHEN reply_count > 0 THEN reply_count - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
		}

		var childIDs []string
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", comment.ID).Pluck("id", &childIDs).Error; err != nil {
			return err
		}
		ids := append(childIDs, comment.ID)
		if err := tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := moderation.PurgeTarget(tx, models.TargetComment, ids...); err != nil {
			return err
		}
		removed = len(ids)
		return bumpCommentCount(tx, comment.TargetType, comment.TargetID, -removed)
	})
	return removed, err
}

// ListResult is one page of root comments with their replies
type ListResult struct {
	Comments []models.Comment
	Total    int64
}

// List returns the root comments on a content item, newest first, with
// replies oldest first
func (s *Service) List(ctx context.Context, t models.TargetType, targetID string, offset, limit int) (*ListResult, error) {
	roots := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Comment{}).
			Where("target_type = ? AND target_id = ? AND parent_id IS NULL AND is_approved = ?", t, targetID, true)
	}

	var result ListResult
	if err := roots().Count(&result.Total).Error; err != nil {
		return nil, err
	}
	err := roots().
		Preload("Author").
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Replies.Author").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&result.Comments).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAll is the admin view over every comment, optionally only reported ones
func (s *Service) ListAll(ctx context.Context, reportedOnly bool, offset, limit int) (*ListResult, error) {
	all := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Comment{})
		if reportedOnly {
			q = q.Where("is_reported = ?", true)
		}
		return q
	}
	var result ListResult
	if err := all().Count(&result.Total).Error; err != nil {
		return nil, err
	}
	err := all().Preload("Author").Order("created_at DESC").Offset(offset).Limit(limit).Find(&result.Comments).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PurgeItems deletes every comment on the given items together with the
// comments' reactions and reports, then the items' own reactions and reports.
// It runs on tx so callers can delete the items in the same transaction.
func PurgeItems(tx *gorm.DB, t models.TargetType, itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	var commentIDs []string
	if err := tx.Model(&models.Comment{}).
		Where("target_type = ? AND target_id IN ?", t, itemIDs).
		Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := moderation.PurgeTarget(tx, models.TargetComment, commentIDs...); err != nil {
			return err
		}
	}
	return moderation.PurgeTarget(tx, t, itemIDs...)
}
