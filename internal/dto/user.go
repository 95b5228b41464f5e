package dto

import (
	"time"

	"github.com/carecircle/backend/internal/models"
)

// AnonymousName replaces the author of anonymous content for non-admin viewers
const AnonymousName = "Anonymous User"

// AuthorSummary is the embedded author of posts, comments, blogs and messages
type AuthorSummary struct {
	ID             string      `json:"id,omitempty"`
	Username       string      `json:"username"`
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	ProfilePicture string      `json:"profilePicture"`
	Role           models.Role `json:"role,omitempty"`
	IsVerified     bool        `json:"isVerified"`
	Specialization string      `json:"specialization,omitempty"`
}

// UserResponse is the public user representation
type UserResponse struct {
	ID             string             `json:"id"`
	Username       string             `json:"username"`
	FirstName      string             `json:"firstName"`
	LastName       string             `json:"lastName"`
	Role           models.Role        `json:"role"`
	ProfilePicture string             `json:"profilePicture"`
	Bio            string             `json:"bio"`
	IsVerified     bool               `json:"isVerified"`
	IsActive       bool               `json:"isActive"`
	DoctorInfo     *models.DoctorInfo `json:"doctorInfo,omitempty"`
	FollowerCount  int                `json:"followerCount"`
	FollowingCount int                `json:"followingCount"`
	CreatedAt      time.Time          `json:"createdAt"`

	IsFollowing *bool `json:"isFollowing,omitempty"`
}

// UserDetailResponse adds private fields for the account owner and admins
type UserDetailResponse struct {
	UserResponse
	Email       string     `json:"email"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

// ToAuthor summarizes u. Anonymous content is masked unless viewer is an admin.
func ToAuthor(u *models.User, anonymous bool, viewer *models.User) *AuthorSummary {
	if anonymous && (viewer == nil || !viewer.IsAdmin()) {
		return &AuthorSummary{Username: AnonymousName, FirstName: "Anonymous", LastName: "User"}
	}
	if u == nil {
		return nil
	}
	summary := &AuthorSummary{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
		Role:           u.Role,
		IsVerified:     u.IsVerified,
	}
	if u.IsDoctor() {
		summary.Specialization = u.DoctorInfo.Specialization
	}
	return summary
}

// ToUserResponse converts models.User to UserResponse (excludes sensitive fields)
func ToUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}

	resp := &UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           user.Role,
		ProfilePicture: user.ProfilePicture,
		Bio:            user.Bio,
		IsVerified:     user.IsVerified,
		IsActive:       user.IsActive,
		FollowerCount:  user.FollowerCount,
		FollowingCount: user.FollowingCount,
		CreatedAt:      user.CreatedAt,
	}
	if user.IsDoctor() {
		info := user.DoctorInfo
		info.RejectionReason = ""
		info.ApprovedBy = nil
		resp.DoctorInfo = &info
	}
	return resp
}

// ToUserDetailResponse includes private fields and the full doctor record
func ToUserDetailResponse(user *models.User) *UserDetailResponse {
	if user == nil {
		return nil
	}

	resp := &UserDetailResponse{
		UserResponse: *ToUserResponse(user),
		Email:        user.Email,
		DateOfBirth:  user.DateOfBirth,
		LastLogin:    user.LastLogin,
	}
	if user.IsDoctor() {
		info := user.DoctorInfo
		resp.DoctorInfo = &info
	}
	return resp
}

// ToUserResponseFor picks the detail view for the account itself and admins
func ToUserResponseFor(user, viewer *models.User) interface{} {
	if viewer != nil && (viewer.ID == user.ID || viewer.IsAdmin()) {
		return ToUserDetailResponse(user)
	}
	return ToUserResponse(user)
}

// ToUserResponses converts a slice of users to public responses
func ToUserResponses(users []models.User) []*UserResponse {
	responses := make([]*UserResponse, len(users))
	for i := range users {
		responses[i] = ToUserResponse(&users[i])
	}
	return responses
}
