package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is the cached projection of a user's transaction log. Balance must
// never go negative; TotalEarned and TotalWithdrawn are monotonically
// non-decreasing. Version guards every read-modify-write: updates are applied
// with a conditional predicate on the version read, and retried on conflict.
type Wallet struct {
	ID             uint            `gorm:"primarykey" json:"-"`
	UserID         uint            `gorm:"uniqueIndex;not null" json:"userId"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"balance"`
	TotalEarned    decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"totalEarned"`
	TotalWithdrawn decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"totalWithdrawn"`
	Version        int64           `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time       `json:"-"`
	UpdatedAt      time.Time       `json:"-"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Wallets always start zeroed, whatever the caller passed in.
	w.Balance = decimal.Zero
	w.TotalEarned = decimal.Zero
	w.TotalWithdrawn = decimal.Zero
	return nil
}
