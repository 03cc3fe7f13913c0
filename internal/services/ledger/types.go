package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StreakUpdate carries a login-streak change that must land in the same
// transaction as the earning it belongs to.
type StreakUpdate struct {
	Count int
	At    time.Time
}

// EarningRequest describes a single credit to a user wallet.
type EarningRequest struct {
	UserID      uint
	Amount      decimal.Decimal
	Type        string // defaults to models.TransactionTypeEarning
	TaskType    string
	Description string

	// DailyLimit caps completed earnings of TaskType per local day.
	// Zero means unlimited.
	DailyLimit int

	RelatedTaskID       *uint
	RelatedSubmissionID *uint
	ProcessedBy         *uint
	Streak              *StreakUpdate
}

// CommissionRequest records platform revenue taken from a submission payout.
type CommissionRequest struct {
	Amount              decimal.Decimal
	Description         string
	RelatedTaskID       *uint
	RelatedSubmissionID *uint
	ProcessedBy         *uint
}

// ReplaySummary is a wallet state derived purely from the transaction log.
type ReplaySummary struct {
	Balance        decimal.Decimal `json:"balance"`
	TotalEarned    decimal.Decimal `json:"total_earned"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	Entries        int             `json:"entries"`
}

// CacheOperator is the slice of the cache service the ledger needs.
type CacheOperator interface {
	InvalidateWallet(ctx context.Context, userID uint) error
}

type noopCache struct{}

func (noopCache) InvalidateWallet(ctx context.Context, userID uint) error { return nil }

// Config tunes withdrawal policy and the retry budget.
type Config struct {
	MinWithdrawal     decimal.Decimal
	WithdrawalMethods []string
	MaxRetries        int
}

// DefaultConfig mirrors production policy.
func DefaultConfig() Config {
	return Config{
		MinWithdrawal:     decimal.NewFromInt(100),
		WithdrawalMethods: []string{"upi", "paypal", "bank", "crypto"},
		MaxRetries:        3,
	}
}
