package models

import "time"

var DiseaseCategories = []string{
	"diabetes", "heart-disease", "cancer", "mental-health", "arthritis",
	"asthma", "digestive", "neurological", "autoimmune", "other",
}

var Severities = []string{"low", "medium", "high", "critical"}
var Prevalences = []string{"rare", "uncommon", "common", "very-common"}

// Disease is an entry in the shared health library
type Disease struct {
	Base
	Name             string     `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description      string     `gorm:"size:2000;not null" json:"description"`
	Category         string     `gorm:"size:32;not null;index" json:"category"`
	Symptoms         StringList `json:"symptoms"`
	CommonTreatments StringList `json:"commonTreatments"`
	Severity         string     `gorm:"size:16;not null;default:medium" json:"severity"`
	Prevalence       string     `gorm:"size:16;not null;default:common" json:"prevalence"`
	Tags             StringList `json:"tags"`
	IsActive         bool       `gorm:"not null;default:true" json:"isActive"`
	CreatedByID      string     `gorm:"size:36;not null" json:"createdBy"`
}

var DietPeriods = []string{"daily", "weekly", "monthly", "custom"}

// Diet is a personal diet plan tracked by its owner
type Diet struct {
	Base
	UserID            string           `gorm:"size:36;not null;index" json:"user"`
	Name              string           `gorm:"size:120;not null" json:"name"`
	Description       string           `gorm:"size:1000" json:"description"`
	Duration          int              `gorm:"not null" json:"duration"`
	Period            string           `gorm:"size:16;not null" json:"period"`
	CustomPeriod      int              `json:"customPeriod,omitempty"`
	CompletedCount    int              `gorm:"not null;default:0" json:"completedCount"`
	IsActive          bool             `gorm:"not null;default:true" json:"isActive"`
	StartDate         time.Time        `gorm:"not null" json:"startDate"`
	EndDate           *time.Time       `json:"endDate,omitempty"`
	CompletionHistory []DietCompletion `gorm:"foreignKey:DietID" json:"completionHistory"`
}

type DietCompletion struct {
	Base
	DietID      string    `gorm:"size:36;not null;index" json:"-"`
	CompletedAt time.Time `gorm:"not null" json:"completedAt"`
	Notes       string    `gorm:"size:500" json:"notes,omitempty"`
}

type ExerciseType string

const (
	// ExerciseIncome is calories gained, ExerciseExpense is calories burned
	ExerciseIncome  ExerciseType = "income"
	ExerciseExpense ExerciseType = "expense"
)

type Exercise struct {
	Base
	UserID      string       `gorm:"size:36;not null;index:idx_exercise_user_date" json:"user"`
	Title       string       `gorm:"size:120;not null" json:"title"`
	Description string       `gorm:"size:1000" json:"description"`
	Duration    int          `gorm:"not null;default:0" json:"duration"`
	Calories    int          `gorm:"not null;default:0" json:"calories"`
	Type        ExerciseType `gorm:"size:8;not null" json:"type"`
	Date        time.Time    `gorm:"not null;index:idx_exercise_user_date" json:"date"`
	Time        string       `gorm:"size:5" json:"time"`
}
