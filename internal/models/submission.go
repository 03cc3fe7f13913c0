package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Submission statuses. pending -> approved|rejected are the only transitions
// and both are terminal.
const (
	SubmissionStatusPending     = "pending"
	SubmissionStatusUnderReview = "under-review"
	SubmissionStatusApproved    = "approved"
	SubmissionStatusRejected    = "rejected"
)

// Submission is a worker's proof of task completion. Reward snapshots the
// task reward at submission time so later task edits cannot change the payout.
// The (task, worker) pair is unique: one submission per worker per task.
type Submission struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	TaskID      uint            `gorm:"not null;uniqueIndex:idx_sub_task_worker" json:"task"`
	WorkerID    uint            `gorm:"not null;uniqueIndex:idx_sub_task_worker" json:"worker"`
	Proof       string          `gorm:"not null" json:"proof"`
	Attachments string          `json:"attachments,omitempty"`
	Reward      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"reward"`

	Status string `gorm:"default:'pending';index" json:"status"`
	IsPaid bool   `gorm:"default:false" json:"isPaid"`

	Rating          *int   `json:"rating,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty"`

	ReviewedByID *uint      `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
