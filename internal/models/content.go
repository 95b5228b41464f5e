package models

// TargetType identifies what a reaction, report, or comment points at
type TargetType string

const (
	TargetPost      TargetType = "Post"
	TargetBlog      TargetType = "Blog"
	TargetEventPost TargetType = "EventPost"
	TargetComment   TargetType = "Comment"
	TargetEvent     TargetType = "Event"
)

// Commentable reports whether comments may attach to t
func (t TargetType) Commentable() bool {
	return t == TargetPost || t == TargetBlog || t == TargetEventPost
}

// Moderation holds the derived counters and moderation flags shared by every
// likeable content item. The counters mirror the reactions and
// content_reports tables and are only changed by the moderation service.
type Moderation struct {
	LikeCount    int  `gorm:"not null;default:0" json:"likeCount"`
	DislikeCount int  `gorm:"not null;default:0" json:"dislikeCount"`
	IsApproved   bool `gorm:"not null;default:true;index" json:"isApproved"`
	IsReported   bool `gorm:"not null;default:false;index" json:"isReported"`
	ReportCount  int  `gorm:"not null;default:0" json:"reportCount"`
}

var PostCategories = []string{
	"diabetes", "heart-disease", "cancer", "mental-health", "arthritis", "asthma",
	"digestive", "neurological", "autoimmune", "success-story", "other",
}

// Post is a patient or doctor community post
type Post struct {
	Base
	AuthorID      string     `gorm:"size:36;not null;index" json:"authorId"`
	Author        *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Content       string     `gorm:"size:5000;not null" json:"content"`
	Category      string     `gorm:"size:32;not null;index" json:"category"`
	Tags          StringList `json:"tags"`
	Images        StringList `json:"images"`
	IsAnonymous   bool       `gorm:"not null;default:false" json:"isAnonymous"`
	IsSensitive   bool       `gorm:"not null;default:false" json:"isSensitive"`
	MedicalAdvice bool       `gorm:"not null;default:false" json:"medicalAdvice"`
	Symptoms      StringList `json:"symptoms"`
	Treatments    StringList `json:"treatments"`
	Views         int        `gorm:"not null;default:0" json:"views"`
	Slug          string     `gorm:"uniqueIndex;size:255" json:"slug"`
	CommentCount  int        `gorm:"not null;default:0" json:"commentCount"`
	Moderation
}

var BlogCategories = []string{
	"medical-advice", "health-tips", "disease-information", "treatment-guides",
	"prevention", "nutrition", "mental-health", "pediatrics", "geriatrics",
	"emergency-care", "research", "other",
}

// Blog is long-form content written by approved doctors
type Blog struct {
	Base
	AuthorID       string     `gorm:"size:36;not null;index" json:"authorId"`
	Author         *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Excerpt        string     `gorm:"size:300" json:"excerpt"`
	Category       string     `gorm:"size:32;not null;index" json:"category"`
	Tags           StringList `json:"tags"`
	Images         StringList `json:"images"`
	FeaturedImage  string     `json:"featuredImage"`
	IsPublished    bool       `gorm:"not null;default:true;index" json:"isPublished"`
	IsFeatured     bool       `gorm:"not null;default:false" json:"isFeatured"`
	ReadingTime    int        `gorm:"not null;default:1" json:"readingTime"`
	Views          int        `gorm:"not null;default:0" json:"views"`
	CommentCount   int        `gorm:"not null;default:0" json:"commentCount"`
	References     StringList `json:"references"`
	SeoTitle       string     `gorm:"size:60" json:"seoTitle"`
	SeoDescription string     `gorm:"size:160" json:"seoDescription"`
	Slug           string     `gorm:"uniqueIndex;size:255" json:"slug"`
	Moderation
}

// EventPost is a post attached to an event's discussion page
type EventPost struct {
	Base
	EventID      string     `gorm:"size:36;not null;index" json:"eventId"`
	AuthorID     string     `gorm:"size:36;not null;index" json:"authorId"`
	Author       *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Content      string     `gorm:"size:5000;not null" json:"content"`
	Images       StringList `json:"images"`
	CommentCount int        `gorm:"not null;default:0" json:"commentCount"`
	Moderation
}

// Comment attaches to a Post, Blog, or EventPost. Threads are at most two
// levels deep: ParentID always names a root comment.
type Comment struct {
	Base
	TargetType    TargetType `gorm:"size:16;not null;index:idx_comment_target" json:"postType"`
	TargetID      string     `gorm:"size:36;not null;index:idx_comment_target" json:"postOrBlog"`
	AuthorID      string     `gorm:"size:36;not null;index" json:"authorId"`
	Author        *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content       string     `gorm:"size:2000;not null" json:"content"`
	IsAnonymous   bool       `gorm:"not null;default:false" json:"isAnonymous"`
	ParentID      *string    `gorm:"size:36;index" json:"parentComment"`
	Replies       []Comment  `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
	ReplyCount    int        `gorm:"not null;default:0" json:"replyCount"`
	IsHelpful     bool       `gorm:"not null;default:false" json:"isHelpful"`
	MedicalAdvice bool       `gorm:"not null;default:false" json:"medicalAdvice"`
	Moderation
}

type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Reaction is one user's like or dislike on a target. The unique index makes
// like and dislike mutually exclusive per user.
type Reaction struct {
	Base
	UserID     string       `gorm:"size:36;not null;uniqueIndex:idx_reaction_user_target" json:"userId"`
	TargetType TargetType   `gorm:"size:16;not null;uniqueIndex:idx_reaction_user_target;index:idx_reaction_target" json:"targetType"`
	TargetID   string       `gorm:"size:36;not null;uniqueIndex:idx_reaction_user_target;index:idx_reaction_target" json:"targetId"`
	Kind       ReactionKind `gorm:"size:8;not null" json:"kind"`
}

type ReportReason string

const (
	ReasonSpam             ReportReason = "spam"
	ReasonInappropriate    ReportReason = "inappropriate"
	ReasonHarassment       ReportReason = "harassment"
	ReasonFalseInformation ReportReason = "false_information"
	ReasonOther            ReportReason = "other"
)

func ValidReportReason(r ReportReason) bool {
	switch r {
	case ReasonSpam, ReasonInappropriate, ReasonHarassment, ReasonFalseInformation, ReasonOther:
		return true
	}
	return false
}

// ContentReport records one user's report on a target, at most once per user
type ContentReport struct {
	Base
	TargetType  TargetType   `gorm:"size:16;not null;uniqueIndex:idx_report_target_reporter" json:"targetType"`
	TargetID    string       `gorm:"size:36;not null;uniqueIndex:idx_report_target_reporter" json:"targetId"`
	ReporterID  string       `gorm:"size:36;not null;uniqueIndex:idx_report_target_reporter;index" json:"reportedBy"`
	Reason      ReportReason `gorm:"size:32;not null" json:"reason"`
	Description string       `gorm:"size:500" json:"description"`
	Status      string       `gorm:"size:16;not null;default:pending" json:"status"`
}
