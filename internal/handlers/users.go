package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/carecircle/backend/internal/dto"
	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/notifications"
	"github.com/carecircle/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (h *Handlers) pageOfUsers(c *gin.Context, message string, scoped func() *gorm.DB, order string) {
	page := util.PageFromQuery(c)
	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	var users []models.User
	if err := scoped().Order(order).Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, message, gin.H{
		"users":      dto.ToUserResponses(users),
		"pagination": page.Paginate(total),
	})
}

// ListUsers is the admin user listing
// GET /api/v1/users?role=&isActive=&search=
func (h *Handlers) ListUsers(c *gin.Context) {
	role := models.Role(c.Query("role"))
	active := util.ParseBool(c.Query("isActive"))
	h.pageOfUsers(c, "users", func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.User{})
		if role != "" {
			q = q.Where("role = ?", role)
		}
		if active != nil {
			q = q.Where("is_active = ?", *active)
		}
		return matchAny(q, c.Query("search"), "username", "email", "first_name", "last_name")
	}, "created_at DESC")
}

// SearchUsers finds active users by username or name
// GET /api/v1/users/search?q=
func (h *Handlers) SearchUsers(c *gin.Context) {
	term := c.Query("q")
	if strings.TrimSpace(term) == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}
	h.pageOfUsers(c, "users", func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("is_active = ?", true)
		return matchAny(q, term, "username", "first_name", "last_name")
	}, "username ASC")
}

func (h *Handlers) approvedDoctors(c *gin.Context) *gorm.DB {
	return h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("role = ? AND doctor_approval_status = ? AND is_active = ?", models.RoleDoctor, models.ApprovalApproved, true)
}

// ListExperts lists approved doctors
// GET /api/v1/users/experts?specialization=&search=
func (h *Handlers) ListExperts(c *gin.Context) {
	specialization := strings.TrimSpace(c.Query("specialization"))
	h.pageOfUsers(c, "experts", func() *gorm.DB {
		q := h.approvedDoctors(c)
		if specialization != "" {
			q = matchAny(q, specialization, "doctor_specialization")
		}
		return matchAny(q, c.Query("search"), "username", "first_name", "last_name", "doctor_hospital")
	}, "doctor_experience DESC, username ASC")
}

// GetExpert returns one approved doctor by username
// GET /api/v1/users/experts/:username
func (h *Handlers) GetExpert(c *gin.Context) {
	var doctor models.User
	err := h.approvedDoctors(c).Where("username = ?", c.Param("username")).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "expert")
			return
		}
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "expert", gin.H{"user": dto.ToUserResponse(&doctor)})
}

// DoctorStatus reports the caller's doctor approval state
// GET /api/v1/users/doctor-status
func (h *Handlers) DoctorStatus(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if !user.IsDoctor() {
		util.RespondWithError(c, apperrors.NotADoctor())
		return
	}
	info := user.DoctorInfo
	util.RespondOK(c, "doctor status", gin.H{
		"approvalStatus":  info.ApprovalStatus,
		"approvalDate":    info.ApprovalDate,
		"rejectionReason": info.RejectionReason,
		"canPublish":      user.IsApprovedDoctor(),
	})
}

// GetUserProfile returns a public profile, or the full one for self and admins
// GET /api/v1/users/:id
func (h *Handlers) GetUserProfile(c *gin.Context) {
	ctx := c.Request.Context()
	var user models.User
	if err := h.findByID(ctx, &user, c.Param("id"), "user"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	viewer := util.CurrentUser(c)
	if !user.IsActive && (viewer == nil || !viewer.IsAdmin()) {
		util.RespondNotFound(c, "user")
		return
	}
	data := gin.H{"user": dto.ToUserResponseFor(&user, viewer)}
	if viewer != nil && viewer.ID != user.ID {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", viewer.ID, user.ID).Count(&count).Error; err != nil {
			util.RespondWithError(c, err)
			return
		}
		data["isFollowing"] = count > 0
	}
	util.RespondOK(c, "user", data)
}

type userStats struct {
	Posts     int64 `json:"posts"`
	Blogs     int64 `json:"blogs"`
	Comments  int64 `json:"comments"`
	Events    int64 `json:"events"`
	Followers int   `json:"followers"`
	Following int   `json:"following"`
}

// UserStats counts a user's public contributions
// GET /api/v1/users/:id/stats
func (h *Handlers) UserStats(c *gin.Context) {
	ctx := c.Request.Context()
	var user models.User
	if err := h.findByID(ctx, &user, c.Param("id"), "user"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	stats := userStats{Followers: user.FollowerCount, Following: user.FollowingCount}
	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dest  *int64
	}{
		{&models.Post{}, "author_id = ? AND is_anonymous = ? AND is_approved = ?", []interface{}{user.ID, false, true}, &stats.Posts},
		{&models.Blog{}, "author_id = ? AND is_published = ? AND is_approved = ?", []interface{}{user.ID, true, true}, &stats.Blogs},
		{&models.Comment{}, "author_id = ? AND is_anonymous = ? AND is_approved = ?", []interface{}{user.ID, false, true}, &stats.Comments},
	}
	for _, q := range counts {
		if err := h.db.WithContext(ctx).Model(q.model).Where(q.where, q.args...).Count(q.dest).Error; err != nil {
			util.RespondWithError(c, err)
			return
		}
	}
	if err := h.db.WithContext(ctx).Model(&models.Event{}).
		Where("author_id = ? AND status IN ?", user.ID, publicEventStatuses).Count(&stats.Events).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "user stats", gin.H{"stats": stats})
}

type profileRequest struct {
	FirstName      *string    `json:"firstName"`
	LastName       *string    `json:"lastName"`
	Bio            *string    `json:"bio"`
	ProfilePicture *string    `json:"profilePicture"`
	DateOfBirth    *time.Time `json:"dateOfBirth"`
	DoctorInfo     *struct {
		Location       *string `json:"location"`
		Specialization *string `json:"specialization"`
		Hospital       *string `json:"hospital"`
		Experience     *int    `json:"experience"`
	} `json:"doctorInfo"`
}

func (r *profileRequest) apply(u *models.User) error {
	var err error
	if r.FirstName != nil {
		if u.FirstName, err = requiredText("firstName", r.FirstName, 50); err != nil {
			return err
		}
	}
	if r.LastName != nil {
		if u.LastName, err = requiredText("lastName", r.LastName, 50); err != nil {
			return err
		}
	}
	if r.Bio != nil {
		bio := strings.TrimSpace(*r.Bio)
		if len([]rune(bio)) > 500 {
			return apperrors.ValidationError("bio", "bio must be at most 500 characters")
		}
		u.Bio = bio
	}
	if r.ProfilePicture != nil {
		u.ProfilePicture = strings.TrimSpace(*r.ProfilePicture)
	}
	if r.DateOfBirth != nil {
		dob := r.DateOfBirth.UTC()
		u.DateOfBirth = &dob
	}
	if d := r.DoctorInfo; d != nil && u.IsDoctor() {
		if d.Location != nil {
			u.DoctorInfo.Location = strings.TrimSpace(*d.Location)
		}
		if d.Specialization != nil {
			u.DoctorInfo.Specialization = strings.TrimSpace(*d.Specialization)
		}
		if d.Hospital != nil {
			u.DoctorInfo.Hospital = strings.TrimSpace(*d.Hospital)
		}
		if d.Experience != nil {
			if *d.Experience < 0 {
				return apperrors.ValidationError("experience", "experience must not be negative")
			}
			u.DoctorInfo.Experience = *d.Experience
		}
	}
	return nil
}

// UpdateUser edits profile fields; the user themself or an admin
// PUT /api/v1/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	actor, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var user models.User
	if err := h.findByID(ctx, &user, c.Param("id"), "user"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !canModify(actor, user.ID) {
		util.RespondForbidden(c, "you can only update your own profile")
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}
	if err := req.apply(&user); err != nil {
		util.RespondWithError(c, err)
		return
	}
	err := h.db.WithContext(ctx).Model(&user).
		Select("first_name", "last_name", "bio", "profile_picture", "date_of_birth",
			"doctor_location", "doctor_specialization", "doctor_hospital", "doctor_experience").
		Updates(&user).Error
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, "profile updated", gin.H{"user": dto.ToUserDetailResponse(&user)})
}

// FollowUser toggles the caller following :id
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	follower, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")
	if targetID == follower.ID {
		util.RespondBadRequest(c, "you cannot follow yourself")
		return
	}
	ctx := c.Request.Context()
	var target models.User
	if err := h.findByID(ctx, &target, targetID, "user"); err != nil {
		util.RespondWithError(c, err)
		return
	}

	following := false
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", follower.ID, target.ID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			create := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Follow{FollowerID: follower.ID, FollowingID: target.ID})
			if create.Error != nil {
				return create.Error
			}
			if create.RowsAffected == 0 {
				// a concurrent request created the edge first
				following = true
				return nil
			}
			following = true
			delta = 1
		}
		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
			UpdateColumn("follower_count", gorm.Expr("CASE WHEN follower_count + ? < 0 THEN 0 ELSE follower_count + ? END", delta, delta)).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", follower.ID).
			UpdateColumn("following_count", gorm.Expr("CASE WHEN following_count + ? < 0 THEN 0 ELSE following_count + ? END", delta, delta)).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	if following && h.notifier != nil {
		h.notifier.Notify(notifications.Request{
			RecipientID: target.ID,
			SenderID:    follower.ID,
			Type:        models.NotifyFollow,
			SenderInfo:  notifications.SenderInfoFor(follower),
		})
	}

	var counts models.User
	if err := h.db.WithContext(ctx).Select("follower_count").First(&counts, "id = ?", target.ID).Error; err != nil {
		util.RespondWithError(c, err)
		return
	}
	msg := "unfollowed"
	if following {
		msg = "following"
	}
	util.RespondOK(c, msg, gin.H{
		"isFollowing":   following,
		"followerCount": counts.FollowerCount,
	})
}

// DeleteUser removes an account and its social edges; admin only
// DELETE /api/v1/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var user models.User
	if err := h.findByID(ctx, &user, c.Param("id"), "user"); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if user.ID == admin.ID {
		util.RespondBadRequest(c, "you cannot delete your own account")
		return
	}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id IN (?)", tx.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", user.ID)).
			UpdateColumn("follower_count", gorm.Expr("CASE WHEN follower_count > 0 THEN follower_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id IN (?)", tx.Model(&models.Follow{}).Select("follower_id").Where("following_id = ?", user.ID)).
			UpdateColumn("following_count", gorm.Expr("CASE WHEN following_count > 0 THEN following_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR following_id = ?", user.ID, user.ID).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipient_id = ? OR sender_id = ?", user.ID, user.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		var eventIDs []string
		if err := tx.Model(&models.EventParticipant{}).Where("user_id = ?", user.ID).Pluck("event_id", &eventIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		if len(eventIDs) > 0 {
			var affected []models.Event
			if err := tx.Where("id IN ?", eventIDs).Find(&affected).Error; err != nil {
				return err
			}
			for i := range affected {
				// saving recounts confirmed participants
				if err := tx.Omit("Author", "Participants").Save(&affected[i]).Error; err != nil {
					return err
				}
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	logger.Log.Info("User deleted by admin",
		logger.WithUserID(admin.ID),
		zap.String("deleted_user_id", user.ID),
	)
	util.RespondOK(c, "user deleted", nil)
}
