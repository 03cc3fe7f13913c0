package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeEarning    = "earning"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeRefund     = "refund"
	TransactionTypeCommission = "commission"
	TransactionTypeReferral   = "referral"
	TransactionTypeBonus      = "bonus"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// Task type tags used for per-type daily counting
const (
	TaskTypeCaptcha    = "captcha"
	TaskTypeSpinWheel  = "spin-wheel"
	TaskTypeDailyLogin = "daily-login"
	TaskTypeReferral   = "referral"
)

// Withdrawal methods
var WithdrawalMethods = []string{"upi", "paypal", "bank", "crypto"}

// WithdrawalDetails is populated only on withdrawal entries.
type WithdrawalDetails struct {
	Method        string `json:"method,omitempty"`
	Account       string `json:"account,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
}

// Transaction is a ledger entry. Entries are immutable once created; the only
// permitted mutation is the pending -> completed/failed status transition on
// withdrawals. Reversals are new compensating entries, never edits. The
// BalanceBefore/BalanceAfter snapshots make each entry self-auditing.
type Transaction struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	UserID      uint            `gorm:"not null;index:idx_tx_user_created" json:"userId"`
	Type        string          `gorm:"not null" json:"type"`
	TaskType    string          `gorm:"index" json:"taskType,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Status      string          `gorm:"not null;default:'pending';index" json:"status"`
	Description string          `gorm:"not null" json:"description"`

	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"balanceAfter"`

	WithdrawalDetails WithdrawalDetails `gorm:"embedded;embeddedPrefix:withdrawal_" json:"withdrawalDetails,omitempty"`

	RelatedTaskID       *uint `json:"relatedTask,omitempty"`
	RelatedSubmissionID *uint `json:"relatedSubmission,omitempty"`

	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	ProcessedBy *uint      `json:"processedBy,omitempty"`
	CreatedAt   time.Time  `gorm:"index:idx_tx_user_created" json:"createdAt"`
	UpdatedAt   time.Time  `json:"-"`
}

// IsCredit reports whether the entry increases the owning wallet's balance.
// Commission entries are platform revenue records and carry snapshots of the
// platform wallet, not the worker's.
func (t *Transaction) IsCredit() bool {
	switch t.Type {
	case TransactionTypeEarning, TransactionTypeRefund, TransactionTypeReferral, TransactionTypeBonus:
		return true
	}
	return false
}
