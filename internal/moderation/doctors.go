package moderation

import (
	"context"
	"time"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/carecircle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultRejectionReason is stored when an admin rejects without a reason
const DefaultRejectionReason = "No reason provided"

func (s *Service) loadUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// ApproveDoctor moves a pending or rejected doctor to approved
func (s *Service) ApproveDoctor(ctx context.Context, doctorID, adminID string) (*models.User, error) {
	doctor, err := s.loadUser(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != models.RoleDoctor {
		return nil, apperrors.NotADoctor()
	}
	if doctor.DoctorInfo.ApprovalStatus == models.ApprovalApproved {
		return nil, apperrors.AlreadyApproved()
	}

	now := time.Now().UTC()
	doctor.DoctorInfo.ApprovalStatus = models.ApprovalApproved
	doctor.DoctorInfo.ApprovalDate = &now
	doctor.DoctorInfo.ApprovedBy = &adminID
	doctor.DoctorInfo.RejectionReason = ""
	if err := s.saveDoctorInfo(ctx, doctor); err != nil {
		return nil, err
	}

	metrics.RecordDoctorDecision("approved")
	logger.Log.Info("Doctor approved", logger.WithUserID(doctorID), zap.String("admin_id", adminID))
	return doctor, nil
}

// RejectDoctor moves a pending or approved doctor to rejected
func (s *Service) RejectDoctor(ctx context.Context, doctorID, adminID, reason string) (*models.User, error) {
	doctor, err := s.loadUser(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != models.RoleDoctor {
		return nil, apperrors.NotADoctor()
	}
	if doctor.DoctorInfo.ApprovalStatus == models.ApprovalRejected {
		return nil, apperrors.AlreadyRejected()
	}
	if reason == "" {
		reason = DefaultRejectionReason
	}
	if len(reason) > 500 {
		return nil, apperrors.ValidationError("reason", "reason must be at most 500 characters")
	}

	now := time.Now().UTC()
	doctor.DoctorInfo.ApprovalStatus = models.ApprovalRejected
	doctor.DoctorInfo.ApprovalDate = &now
	doctor.DoctorInfo.ApprovedBy = &adminID
	doctor.DoctorInfo.RejectionReason = reason
	if err := s.saveDoctorInfo(ctx, doctor); err != nil {
		return nil, err
	}

	metrics.RecordDoctorDecision("rejected")
	logger.Log.Info("Doctor rejected", logger.WithUserID(doctorID), zap.String("admin_id", adminID))
	return doctor, nil
}

func (s *Service) saveDoctorInfo(ctx context.Context, doctor *models.User) error {
	return s.db.WithContext(ctx).Model(doctor).Select(
		"doctor_approval_status",
		"doctor_approval_date",
		"doctor_approved_by",
		"doctor_rejection_reason",
	).Updates(map[string]interface{}{
		"doctor_approval_status":  doctor.DoctorInfo.ApprovalStatus,
		"doctor_approval_date":    doctor.DoctorInfo.ApprovalDate,
		"doctor_approved_by":      doctor.DoctorInfo.ApprovedBy,
		"doctor_rejection_reason": doctor.DoctorInfo.RejectionReason,
	}).Error
}

// RequireApprovedDoctor is the approval gate for doctor-only content. It
// re-reads the user so a stale token role or status is never trusted. Admins
// pass when allowAdmin is set.
func (s *Service) RequireApprovedDoctor(ctx context.Context, userID string, allowAdmin bool) (*models.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if allowAdmin && user.IsAdmin() {
		return user, nil
	}
	if user.Role != models.RoleDoctor {
		return nil, apperrors.Forbidden("only doctors can perform this action")
	}
	if user.DoctorInfo.ApprovalStatus != models.ApprovalApproved {
		return nil, apperrors.ApprovalRequired(string(user.DoctorInfo.ApprovalStatus))
	}
	return user, nil
}

// PendingDoctors lists doctors awaiting a decision, oldest first
func (s *Service) PendingDoctors(ctx context.Context, limit int) ([]models.User, error) {
	var doctors []models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND doctor_approval_status = ?", models.RoleDoctor, models.ApprovalPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&doctors).Error
	return doctors, err
}
