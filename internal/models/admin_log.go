package models

import "time"

// Admin actions recorded in the audit log
const (
	AdminActionApproveUser       = "approve_user"
	AdminActionRejectUser        = "reject_user"
	AdminActionApproveTask       = "approve_task"
	AdminActionRejectTask        = "reject_task"
	AdminActionPauseTask         = "pause_task"
	AdminActionApproveSubmission = "approve_submission"
	AdminActionRejectSubmission  = "reject_submission"
	AdminActionProcessWithdrawal = "process_withdrawal"
)

// AdminLog is an append-only audit entry for every admin decision. Entries are
// never updated or deleted; dispute resolution depends on the trail.
type AdminLog struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	AdminID uint   `gorm:"not null;index:idx_log_admin_created" json:"admin"`
	Action  string `gorm:"not null;index" json:"action"`

	TargetUserID        *uint `json:"targetUser,omitempty"`
	TargetTaskID        *uint `json:"targetTask,omitempty"`
	TargetSubmissionID  *uint `json:"targetSubmission,omitempty"`
	TargetTransactionID *uint `json:"targetTransaction,omitempty"`

	Description string    `gorm:"not null" json:"description"`
	Metadata    JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time `gorm:"index:idx_log_admin_created" json:"createdAt"`
}
