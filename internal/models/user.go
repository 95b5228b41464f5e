package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is one of the known roles
func ValidRole(r Role) bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// DoctorInfo is only meaningful when the user's role is doctor.
// ApprovalStatus is empty for every other role.
type DoctorInfo struct {
	ApprovalStatus  ApprovalStatus `gorm:"size:16;index" json:"approvalStatus"`
	ApprovalDate    *time.Time     `json:"approvalDate,omitempty"`
	ApprovedBy      *string        `gorm:"size:36" json:"approvedBy,omitempty"`
	RejectionReason string         `gorm:"size:500" json:"rejectionReason,omitempty"`
	Location        string         `gorm:"size:100" json:"location,omitempty"`
	Specialization  string         `gorm:"size:100;index" json:"specialization,omitempty"`
	Hospital        string         `gorm:"size:100" json:"hospital,omitempty"`
	Experience      int            `json:"experience,omitempty"`
}

// User is a patient, doctor, or admin account
type User struct {
	Base
	Username     string `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `gorm:"size:50;not null" json:"firstName"`
	LastName     string `gorm:"size:50;not null" json:"lastName"`
	Role         Role   `gorm:"size:16;not null;default:patient;index" json:"role"`

	DoctorInfo DoctorInfo `gorm:"embedded;embeddedPrefix:doctor_" json:"doctorInfo"`

	ProfilePicture string     `json:"profilePicture"`
	Bio            string     `gorm:"size:500" json:"bio"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	IsVerified     bool       `gorm:"not null;default:false" json:"isVerified"`
	IsActive       bool       `gorm:"not null;default:true;index" json:"isActive"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`

	FollowerCount  int `gorm:"not null;default:0" json:"followerCount"`
	FollowingCount int `gorm:"not null;default:0" json:"followingCount"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}

// IsApprovedDoctor reports whether the user may create doctor-gated content
func (u *User) IsApprovedDoctor() bool {
	return u.Role == RoleDoctor && u.DoctorInfo.ApprovalStatus == ApprovalApproved
}

// SetRole applies a role change, resetting doctor info the way registration would
func (u *User) SetRole(role Role) {
	if u.Role == role {
		return
	}
	u.Role = role
	if role == RoleDoctor {
		u.DoctorInfo.ApprovalStatus = ApprovalPending
		u.DoctorInfo.ApprovalDate = nil
		u.DoctorInfo.ApprovedBy = nil
		u.DoctorInfo.RejectionReason = ""
		return
	}
	u.DoctorInfo = DoctorInfo{}
}

// BeforeSave normalizes the email so lookups can be case-insensitive
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	return nil
}

// Follow is a directed follower -> following edge
type Follow struct {
	Base
	FollowerID  string `gorm:"size:36;not null;uniqueIndex:idx_follow_pair" json:"followerId"`
	FollowingID string `gorm:"size:36;not null;uniqueIndex:idx_follow_pair;index" json:"followingId"`
}
