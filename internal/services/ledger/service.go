// Package ledger owns every wallet mutation. Balances only change here,
// and every change appends a transaction entry in the same database
// transaction, so the log can always reproduce the wallet.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

// Service is the wallet and transaction-log API.
type Service interface {
	RecordEarning(ctx context.Context, req EarningRequest) (*models.Transaction, error)
	RecordWithdrawalRequest(ctx context.Context, userID uint, amount decimal.Decimal, method, account string) (*models.Transaction, error)
	ApproveWithdrawal(ctx context.Context, txID, adminID uint, settlementRef string) (*models.Transaction, error)
	RejectWithdrawal(ctx context.Context, txID, adminID uint, reason string) (*models.Transaction, error)
	RecordCommission(ctx context.Context, req CommissionRequest) (*models.Transaction, error)

	// CreditInTx and CommissionInTx apply credits inside a unit of work the
	// caller already owns, so a credit can be atomic with other state
	// changes (submission review). The caller owns retrying
	// ErrVersionConflict by re-running its whole unit.
	CreditInTx(ctx context.Context, r repositories.Repos, req EarningRequest) (*models.Transaction, error)
	CommissionInTx(ctx context.Context, r repositories.Repos, req CommissionRequest) (*models.Transaction, error)

	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetTransaction(ctx context.Context, id uint) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter repositories.TransactionFilter) ([]models.Transaction, int64, error)
	CountEarningsToday(ctx context.Context, userID uint, taskType string) (int64, error)
	Replay(ctx context.Context, userID uint) (*ReplaySummary, error)
}

type service struct {
	uow     repositories.UnitOfWork
	cache   CacheOperator
	metrics MetricsCollector
	config  Config
	now     func() time.Time
}

// NewService creates a ledger service. Cache and metrics may be nil.
func NewService(uow repositories.UnitOfWork, cache CacheOperator, metrics MetricsCollector, config Config) Service {
	if cache == nil {
		cache = noopCache{}
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.MinWithdrawal.IsZero() {
		config.MinWithdrawal = decimal.NewFromInt(100)
	}
	if len(config.WithdrawalMethods) == 0 {
		config.WithdrawalMethods = models.WithdrawalMethods
	}
	return &service{
		uow:     uow,
		cache:   cache,
		metrics: metrics,
		config:  config,
		now:     time.Now,
	}
}

// withRetry runs fn in a unit of work, retrying on wallet version
// conflicts up to the configured budget.
func (s *service) withRetry(ctx context.Context, operation string, fn func(r repositories.Repos) error) error {
	var err error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		err = s.uow.Do(ctx, fn)
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return err
		}
		s.metrics.RecordConflictRetry(operation)
	}
	return fmt.Errorf("%w: %s contention persisted after %d attempts", ErrTransientFailure, operation, s.config.MaxRetries)
}

// dayWindow returns the local-midnight bounds of the day containing t.
func dayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *service) RecordEarning(ctx context.Context, req EarningRequest) (*models.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	txType := req.Type
	if txType == "" {
		txType = models.TransactionTypeEarning
	}

	var txn *models.Transaction
	err := s.withRetry(ctx, "record_earning", func(r repositories.Repos) error {
		var err error
		txn, err = s.creditIn(ctx, r, req, txType)
		return err
	})
	if err != nil {
		s.metrics.RecordError("record_earning", err)
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, req.UserID)
	s.metrics.RecordTransaction(txType, req.Amount)
	return txn, nil
}

// creditIn performs the limit check, versioned wallet write and ledger
// append within the caller's transaction.
func (s *service) creditIn(ctx context.Context, r repositories.Repos, req EarningRequest, txType string) (*models.Transaction, error) {
	if req.DailyLimit > 0 {
		start, end := dayWindow(s.now())
		count, err := r.Ledger.CountEarnings(ctx, req.UserID, req.TaskType, start, end)
		if err != nil {
			return nil, err
		}
		if count >= int64(req.DailyLimit) {
			return nil, ErrDailyLimitReached
		}
	}

	wallet, err := r.Ledger.GetWalletByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	before := wallet.Balance
	wallet.Balance = before.Add(req.Amount)
	wallet.TotalEarned = wallet.TotalEarned.Add(req.Amount)
	if err := r.Ledger.UpdateWalletVersioned(ctx, wallet); err != nil {
		return nil, err
	}

	if req.Streak != nil {
		if err := r.Users.UpdateStreak(ctx, req.UserID, req.Streak.Count, req.Streak.At); err != nil {
			return nil, err
		}
	}

	now := s.now()
	txn := &models.Transaction{
		UserID:              req.UserID,
		Type:                txType,
		TaskType:            req.TaskType,
		Amount:              req.Amount,
		Status:              models.TransactionStatusCompleted,
		Description:         req.Description,
		BalanceBefore:       before,
		BalanceAfter:        wallet.Balance,
		RelatedTaskID:       req.RelatedTaskID,
		RelatedSubmissionID: req.RelatedSubmissionID,
		ProcessedAt:         &now,
		ProcessedBy:         req.ProcessedBy,
	}
	if err := r.Ledger.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) CreditInTx(ctx context.Context, r repositories.Repos, req EarningRequest) (*models.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	txType := req.Type
	if txType == "" {
		txType = models.TransactionTypeEarning
	}
	return s.creditIn(ctx, r, req, txType)
}

func (s *service) RecordWithdrawalRequest(ctx context.Context, userID uint, amount decimal.Decimal, method, account string) (*models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(s.config.MinWithdrawal) {
		return nil, ErrAmountBelowMinimum
	}
	if !validMethod(s.config.WithdrawalMethods, method) {
		return nil, ErrInvalidWithdrawalMethod
	}

	var txn *models.Transaction
	err := s.withRetry(ctx, "request_withdrawal", func(r repositories.Repos) error {
		wallet, err := r.Ledger.GetWalletByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}
		before := wallet.Balance
		wallet.Balance = before.Sub(amount)
		if err := r.Ledger.UpdateWalletVersioned(ctx, wallet); err != nil {
			return err
		}

		txn = &models.Transaction{
			UserID:        userID,
			Type:          models.TransactionTypeWithdrawal,
			Amount:        amount,
			Status:        models.TransactionStatusPending,
			Description:   fmt.Sprintf("Withdrawal via %s", method),
			BalanceBefore: before,
			BalanceAfter:  wallet.Balance,
			WithdrawalDetails: models.WithdrawalDetails{
				Method:  method,
				Account: account,
			},
		}
		return r.Ledger.CreateTransaction(ctx, txn)
	})
	if err != nil {
		s.metrics.RecordError("request_withdrawal", err)
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, userID)
	s.metrics.RecordTransaction(models.TransactionTypeWithdrawal, amount)
	return txn, nil
}

func (s *service) ApproveWithdrawal(ctx context.Context, txID, adminID uint, settlementRef string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.withRetry(ctx, "approve_withdrawal", func(r repositories.Repos) error {
		found, err := r.Ledger.GetTransactionByID(ctx, txID)
		if err != nil {
			return err
		}
		if found.Type != models.TransactionTypeWithdrawal {
			return ErrNotWithdrawal
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":       models.TransactionStatusCompleted,
			"processed_at": now,
			"processed_by": adminID,
		}
		if settlementRef != "" {
			updates["withdrawal_transaction_id"] = settlementRef
		}
		flipped, err := r.Ledger.UpdateTransactionIf(ctx, txID, models.TransactionStatusPending, updates)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrAlreadyProcessed
		}

		wallet, err := r.Ledger.GetWalletByUserID(ctx, found.UserID)
		if err != nil {
			return err
		}
		wallet.TotalWithdrawn = wallet.TotalWithdrawn.Add(found.Amount)
		if err := r.Ledger.UpdateWalletVersioned(ctx, wallet); err != nil {
			return err
		}

		found.Status = models.TransactionStatusCompleted
		found.ProcessedAt = &now
		found.ProcessedBy = &adminID
		if settlementRef != "" {
			found.WithdrawalDetails.TransactionID = settlementRef
		}
		txn = found
		return nil
	})
	if err != nil {
		s.metrics.RecordError("approve_withdrawal", err)
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, txn.UserID)
	return txn, nil
}

func (s *service) RejectWithdrawal(ctx context.Context, txID, adminID uint, reason string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.withRetry(ctx, "reject_withdrawal", func(r repositories.Repos) error {
		found, err := r.Ledger.GetTransactionByID(ctx, txID)
		if err != nil {
			return err
		}
		if found.Type != models.TransactionTypeWithdrawal {
			return ErrNotWithdrawal
		}

		now := s.now()
		flipped, err := r.Ledger.UpdateTransactionIf(ctx, txID, models.TransactionStatusPending, map[string]interface{}{
			"status":       models.TransactionStatusFailed,
			"processed_at": now,
			"processed_by": adminID,
		})
		if err != nil {
			return err
		}
		if !flipped {
			return ErrAlreadyProcessed
		}

		wallet, err := r.Ledger.GetWalletByUserID(ctx, found.UserID)
		if err != nil {
			return err
		}
		before := wallet.Balance
		wallet.Balance = before.Add(found.Amount)
		if err := r.Ledger.UpdateWalletVersioned(ctx, wallet); err != nil {
			return err
		}

		refundDesc := "Refund for rejected withdrawal"
		if reason != "" {
			refundDesc = fmt.Sprintf("Refund for rejected withdrawal: %s", reason)
		}
		refund := &models.Transaction{
			UserID:        found.UserID,
			Type:          models.TransactionTypeRefund,
			Amount:        found.Amount,
			Status:        models.TransactionStatusCompleted,
			Description:   refundDesc,
			BalanceBefore: before,
			BalanceAfter:  wallet.Balance,
			ProcessedAt:   &now,
			ProcessedBy:   &adminID,
		}
		if err := r.Ledger.CreateTransaction(ctx, refund); err != nil {
			return err
		}

		found.Status = models.TransactionStatusFailed
		found.ProcessedAt = &now
		found.ProcessedBy = &adminID
		txn = found
		return nil
	})
	if err != nil {
		s.metrics.RecordError("reject_withdrawal", err)
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, txn.UserID)
	s.metrics.RecordTransaction(models.TransactionTypeRefund, txn.Amount)
	return txn, nil
}

// RecordCommission credits the platform account. The entry snapshots the
// platform wallet, never a worker wallet, so user replays stay clean.
func (s *service) RecordCommission(ctx context.Context, req CommissionRequest) (*models.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var txn *models.Transaction
	err := s.withRetry(ctx, "record_commission", func(r repositories.Repos) error {
		var err error
		txn, err = s.commissionIn(ctx, r, req)
		return err
	})
	if err != nil {
		s.metrics.RecordError("record_commission", err)
		return nil, err
	}

	s.metrics.RecordTransaction(models.TransactionTypeCommission, req.Amount)
	return txn, nil
}

// commissionIn credits the platform wallet within the caller's
// transaction.
func (s *service) commissionIn(ctx context.Context, r repositories.Repos, req CommissionRequest) (*models.Transaction, error) {
	platform, err := r.Users.GetSystemUser(ctx)
	if err != nil {
		return nil, err
	}
	wallet, err := r.Ledger.GetWalletByUserID(ctx, platform.ID)
	if err != nil {
		return nil, err
	}
	before := wallet.Balance
	wallet.Balance = before.Add(req.Amount)
	wallet.TotalEarned = wallet.TotalEarned.Add(req.Amount)
	if err := r.Ledger.UpdateWalletVersioned(ctx, wallet); err != nil {
		return nil, err
	}

	now := s.now()
	txn := &models.Transaction{
		UserID:              platform.ID,
		Type:                models.TransactionTypeCommission,
		Amount:              req.Amount,
		Status:              models.TransactionStatusCompleted,
		Description:         req.Description,
		BalanceBefore:       before,
		BalanceAfter:        wallet.Balance,
		RelatedTaskID:       req.RelatedTaskID,
		RelatedSubmissionID: req.RelatedSubmissionID,
		ProcessedAt:         &now,
		ProcessedBy:         req.ProcessedBy,
	}
	if err := r.Ledger.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) CommissionInTx(ctx context.Context, r repositories.Repos, req CommissionRequest) (*models.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	return s.commissionIn(ctx, r, req)
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		wallet, err = r.Ledger.GetWalletByUserID(ctx, userID)
		return err
	})
	return wallet, err
}

func (s *service) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		txn, err = r.Ledger.GetTransactionByID(ctx, id)
		return err
	})
	return txn, err
}

func (s *service) ListTransactions(ctx context.Context, filter repositories.TransactionFilter) ([]models.Transaction, int64, error) {
	var (
		txns  []models.Transaction
		total int64
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		txns, total, err = r.Ledger.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (s *service) CountEarningsToday(ctx context.Context, userID uint, taskType string) (int64, error) {
	start, end := dayWindow(s.now())
	var count int64
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		count, err = r.Ledger.CountEarnings(ctx, userID, taskType, start, end)
		return err
	})
	return count, err
}

// Replay folds a user's transaction log oldest-first and returns the
// wallet state it implies.
func (s *service) Replay(ctx context.Context, userID uint) (*ReplaySummary, error) {
	var txns []models.Transaction
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		txns, _, err = r.Ledger.List(ctx, repositories.TransactionFilter{
			UserID:    userID,
			Ascending: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	summary := &ReplaySummary{
		Balance:        decimal.Zero,
		TotalEarned:    decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
	for _, t := range txns {
		switch t.Type {
		case models.TransactionTypeEarning, models.TransactionTypeReferral, models.TransactionTypeBonus, models.TransactionTypeCommission:
			if t.Status != models.TransactionStatusCompleted {
				continue
			}
			summary.Balance = summary.Balance.Add(t.Amount)
			summary.TotalEarned = summary.TotalEarned.Add(t.Amount)
		case models.TransactionTypeRefund:
			if t.Status != models.TransactionStatusCompleted {
				continue
			}
			summary.Balance = summary.Balance.Add(t.Amount)
		case models.TransactionTypeWithdrawal:
			// Requests debit the balance immediately. Rejections are
			// compensated by a refund entry, never by erasing this one.
			summary.Balance = summary.Balance.Sub(t.Amount)
			if t.Status == models.TransactionStatusCompleted {
				summary.TotalWithdrawn = summary.TotalWithdrawn.Add(t.Amount)
			}
		}
		summary.Entries++
	}
	return summary, nil
}

func validMethod(allowed []string, method string) bool {
	for _, m := range allowed {
		if m == method {
			return true
		}
	}
	return false
}
