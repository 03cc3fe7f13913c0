package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigpay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetWalletByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) UpdateWalletVersioned(ctx context.Context, wallet *models.Wallet) error {
	result := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ? AND version = ?", wallet.ID, wallet.Version).
		Updates(map[string]interface{}{
			"balance":         wallet.Balance,
			"total_earned":    wallet.TotalEarned,
			"total_withdrawn": wallet.TotalWithdrawn,
			"version":         wallet.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	wallet.Version++
	return nil
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetTransactionByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *ledgerRepository) applyFilter(q *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.TaskType != "" {
		q = q.Where("task_type = ?", filter.TaskType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	return q
}

func (r *ledgerRepository) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, int64, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Transaction{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txs []models.Transaction
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	order := "created_at DESC"
	if filter.Ascending {
		order = "created_at ASC, id ASC"
	}
	if err := q.Offset(filter.Offset).Order(order).Find(&txs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, total, nil
}

func (r *ledgerRepository) Count(ctx context.Context, filter TransactionFilter) (int64, error) {
	var total int64
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Transaction{}), filter)
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return total, nil
}

func (r *ledgerRepository) CountEarnings(ctx context.Context, userID uint, taskType string, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND task_type = ? AND status = ? AND created_at BETWEEN ? AND ?",
			userID, models.TransactionTypeEarning, taskType, models.TransactionStatusCompleted, start, end).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count earnings: %w", err)
	}
	return count, nil
}

func (r *ledgerRepository) UpdateTransactionIf(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update transaction: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *ledgerRepository) SumCompleted(ctx context.Context, txType string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("type = ? AND status = ?", txType, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}
