package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleWorker  = "worker"
	RoleCreator = "creator"
	RoleAdmin   = "admin"
)

// UserStatistics is embedded in User and tracks work history.
// Rating is a weighted incremental mean over TotalRatings reviews.
type UserStatistics struct {
	TasksCompleted int     `gorm:"default:0" json:"tasksCompleted"`
	TasksCreated   int     `gorm:"default:0" json:"tasksCreated"`
	Rating         float64 `gorm:"default:0" json:"rating"`
	TotalRatings   int     `gorm:"default:0" json:"totalRatings"`
}

type User struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Password     string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:'worker'" json:"role"`
	IsActive     bool   `gorm:"default:true" json:"isActive"`
	IsApproved   bool   `gorm:"default:true" json:"isApproved"`
	IsSystem     bool   `gorm:"default:false" json:"-"`
	Skills       string `json:"skills"`
	TokenVersion int    `gorm:"default:1" json:"-"`

	Statistics UserStatistics `gorm:"embedded;embeddedPrefix:stat_" json:"statistics"`

	// Daily-login streak state, updated atomically with the earning credit.
	StreakCount     int        `gorm:"default:0" json:"streakCount"`
	LastDailyTaskAt *time.Time `json:"lastDailyTaskAt,omitempty"`

	ReferralCode string `gorm:"uniqueIndex" json:"referralCode"`
	ReferredByID *uint  `json:"referredBy,omitempty"`
}
