package moderation

import (
	"context"

	"github.com/carecircle/backend/internal/database"
	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/carecircle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportResult is the target's report state after a successful report
type ReportResult struct {
	ReportCount int  `json:"reportCount"`
	IsReported  bool `json:"isReported"`
}

// Report files a report against a target. Each user may report a target once;
// reportCount is always the number of distinct reporters.
func (s *Service) Report(ctx context.Context, t models.TargetType, targetID, userID string, reason models.ReportReason, description string) (*ReportResult, error) {
	if !models.ValidReportReason(reason) {
		return nil, apperrors.ValidationError("reason", "reason must be one of spam, inappropriate, harassment, false_information, other")
	}
	if len(description) > 500 {
		return nil, apperrors.ValidationError("description", "description must be at most 500 characters")
	}
	table, err := TableFor(t)
	if err != nil {
		return nil, err
	}

	var result ReportResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := LoadTarget(ctx, tx, t, targetID); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.ContentReport{}).
			Where("target_type = ? AND target_id = ? AND reporter_id = ?", t, targetID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.AlreadyReported()
		}

		report := &models.ContentReport{
			TargetType:  t,
			TargetID:    targetID,
			ReporterID:  userID,
			Reason:      reason,
			Description: description,
			Status:      "pending",
		}
		if err := tx.Create(report).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperrors.AlreadyReported()
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.ContentReport{}).
			Where("target_type = ? AND target_id = ?", t, targetID).
			Count(&count).Error; err != nil {
			return err
		}

		result = ReportResult{ReportCount: int(count), IsReported: true}
		return tx.Table(table).Where("id = ?", targetID).UpdateColumns(map[string]interface{}{
			"report_count": result.ReportCount,
			"is_reported":  true,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordReport(string(t), string(reason))
	logger.Log.Info("Content reported",
		logger.WithTarget(string(t), targetID),
		logger.WithUserID(userID),
		zap.String("reason", string(reason)),
		zap.Int("report_count", result.ReportCount),
	)
	return &result, nil
}

// SetApproval is the admin moderation action on a content item. Approving
// clears isReported and resolves its pending reports; reportCount is kept.
func (s *Service) SetApproval(ctx context.Context, t models.TargetType, targetID string, approved bool) error {
	table, err := TableFor(t)
	if err != nil {
		return err
	}
	if !reactable(t) {
		return apperrors.ValidationError("targetType", "target has no approval flag")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := LoadTarget(ctx, tx, t, targetID); err != nil {
			return err
		}
		updates := map[string]interface{}{"is_approved": approved}
		if approved {
			updates["is_reported"] = false
		}
		if err := tx.Table(table).Where("id = ?", targetID).UpdateColumns(updates).Error; err != nil {
			return err
		}
		if !approved {
			return nil
		}
		return tx.Model(&models.ContentReport{}).
			Where("target_type = ? AND target_id = ? AND status = ?", t, targetID, "pending").
			Update("status", "resolved").Error
	})
}

// Reports lists the reports filed against one target, newest first
func (s *Service) Reports(ctx context.Context, t models.TargetType, targetID string) ([]models.ContentReport, error) {
	var reports []models.ContentReport
	err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", t, targetID).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}
