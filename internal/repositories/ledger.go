package repositories

import (
	"context"
	"time"

	"gigpay/internal/models"

	"github.com/shopspring/decimal"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	UserID   uint
	Type     string
	TaskType string
	Status   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int

	// Ascending lists oldest-first. Replays depend on this order.
	Ascending bool
}

// LedgerRepository owns wallets and the append-only transaction log.
// Mutations are conditional: wallet writes are guarded by the version read,
// status flips by the current status. Callers compose them into atomic units
// through the unit of work.
type LedgerRepository interface {
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	GetWalletByUserID(ctx context.Context, userID uint) (*models.Wallet, error)

	// UpdateWalletVersioned persists wallet fields only if the stored version
	// still equals wallet.Version, bumping it by one. Returns
	// ErrVersionConflict when another writer got there first.
	UpdateWalletVersioned(ctx context.Context, wallet *models.Wallet) error

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByID(ctx context.Context, id uint) (*models.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, int64, error)
	Count(ctx context.Context, filter TransactionFilter) (int64, error)

	// CountEarnings counts completed earning entries for (user, taskType)
	// created within [start, end]. Backs the daily-window limit check.
	CountEarnings(ctx context.Context, userID uint, taskType string, start, end time.Time) (int64, error)

	// UpdateTransactionIf applies updates only while the entry still has
	// fromStatus; reports whether a row was changed. This is the idempotency
	// gate for withdrawal processing.
	UpdateTransactionIf(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) (bool, error)

	// SumCompleted totals completed entries of a type across all users
	// (platform revenue, dashboard).
	SumCompleted(ctx context.Context, txType string) (decimal.Decimal, error)
}
