package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Task statuses. Transitions: pending -> active (admin approve),
// pending -> rejected (admin reject), active -> completed (slots exhausted),
// active <-> paused (manual). completed implies AvailableSlots == 0.
const (
	TaskStatusPending   = "pending"
	TaskStatusActive    = "active"
	TaskStatusPaused    = "paused"
	TaskStatusCompleted = "completed"
	TaskStatusRejected  = "rejected"
)

// Task categories
var TaskCategories = []string{
	"data-entry", "captcha", "survey", "content-writing", "social-media", "testing", "other",
}

// Task is a creator-posted work item with bounded capacity. AvailableSlots is
// only ever moved by conditional atomic updates, never read-then-write.
type Task struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	CreatorID   uint            `gorm:"not null;index" json:"creator"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"not null" json:"description"`
	Category    string          `gorm:"default:'other'" json:"category"`
	Reward      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"reward"`

	TotalSlots     int `gorm:"not null" json:"totalSlots"`
	AvailableSlots int `gorm:"not null" json:"availableSlots"`

	Status     string `gorm:"default:'pending';index" json:"status"`
	IsApproved bool   `gorm:"default:false;index" json:"isApproved"`

	ApprovedByID    *uint      `json:"approvedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	t.AvailableSlots = t.TotalSlots
	t.Status = TaskStatusPending
	t.IsApproved = false
	return nil
}

// Acceptable reports whether workers may currently submit to the task.
func (t *Task) Acceptable() bool {
	return t.IsApproved && t.Status == TaskStatusActive && t.AvailableSlots > 0
}
