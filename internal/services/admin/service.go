// Package admin implements moderation: user and task approval,
// withdrawal settlement and the platform dashboard. Every decision
// writes an append-only audit log entry in the same transaction as the
// change it records.
package admin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/authz"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/notification"
)

// Dashboard aggregates platform statistics.
type Dashboard struct {
	TotalUsers         int64           `json:"totalUsers"`
	TotalWorkers       int64           `json:"totalWorkers"`
	TotalCreators      int64           `json:"totalCreators"`
	PendingUsers       int64           `json:"pendingUsers"`
	TotalTasks         int64           `json:"totalTasks"`
	PendingTasks       int64           `json:"pendingTasks"`
	ActiveTasks        int64           `json:"activeTasks"`
	PendingSubmissions int64           `json:"pendingSubmissions"`
	PendingWithdrawals int64           `json:"pendingWithdrawals"`
	TotalPaidOut       decimal.Decimal `json:"totalPaidOut"`
	TotalWithdrawn     decimal.Decimal `json:"totalWithdrawn"`
	PlatformRevenue    decimal.Decimal `json:"platformRevenue"`
}

// Service is the moderation API. Every method checks the actor against
// the authz predicates before touching state.
type Service interface {
	ApproveUser(ctx context.Context, actor authz.Actor, userID uint) (*models.User, error)
	RejectUser(ctx context.Context, actor authz.Actor, userID uint, reason string) (*models.User, error)
	ApproveTask(ctx context.Context, actor authz.Actor, taskID uint) (*models.Task, error)
	RejectTask(ctx context.Context, actor authz.Actor, taskID uint, reason string) (*models.Task, error)
	ApproveWithdrawal(ctx context.Context, actor authz.Actor, txID uint, settlementRef string) (*models.Transaction, error)
	RejectWithdrawal(ctx context.Context, actor authz.Actor, txID uint, reason string) (*models.Transaction, error)

	GetDashboard(ctx context.Context, actor authz.Actor) (*Dashboard, error)
	ListUsers(ctx context.Context, actor authz.Actor, filter repositories.UserFilter) ([]models.User, int64, error)
	ListWithdrawals(ctx context.Context, actor authz.Actor, status string, limit, offset int) ([]models.Transaction, int64, error)
	ListLogs(ctx context.Context, actor authz.Actor, filter repositories.AdminLogFilter) ([]models.AdminLog, int64, error)
}

type service struct {
	uow      repositories.UnitOfWork
	ledger   ledger.Service
	notifier notification.Notifier
}

// NewService creates an admin service. Notifier may be nil.
func NewService(uow repositories.UnitOfWork, ledgerSvc ledger.Service, notifier notification.Notifier) Service {
	if notifier == nil {
		notifier = notification.Noop{}
	}
	return &service{uow: uow, ledger: ledgerSvc, notifier: notifier}
}

func (s *service) log(ctx context.Context, r repositories.Repos, entry *models.AdminLog) error {
	return r.AdminLogs.Create(ctx, entry)
}

func (s *service) ApproveUser(ctx context.Context, actor authz.Actor, userID uint) (*models.User, error) {
	if !authz.CanModerate(actor) {
		return nil, authz.ErrForbidden
	}

	var user *models.User
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if found.Role == models.RoleAdmin {
			return ErrCannotModifyAdmin
		}
		if err := r.Users.SetApproval(ctx, userID, true, true); err != nil {
			return err
		}
		found.IsApproved = true
		found.IsActive = true
		user = found
		return s.log(ctx, r, &models.AdminLog{
			AdminID:      actor.ID,
			Action:       models.AdminActionApproveUser,
			TargetUserID: &userID,
			Description:  fmt.Sprintf("Approved user %s", found.Email),
		})
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) RejectUser(ctx context.Context, actor authz.Actor, userID uint, reason string) (*models.User, error) {
	if !authz.CanModerate(actor) {
		return nil, authz.ErrForbidden
	}

	var user *models.User
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if found.Role == models.RoleAdmin {
			return ErrCannotModifyAdmin
		}
		if err := r.Users.SetApproval(ctx, userID, false, false); err != nil {
			return err
		}
		found.IsApproved = false
		found.IsActive = false
		user = found
		return s.log(ctx, r, &models.AdminLog{
			AdminID:      actor.ID,
			Action:       models.AdminActionRejectUser,
			TargetUserID: &userID,
			Description:  fmt.Sprintf("Rejected user %s", found.Email),
			Metadata:     models.JSON{"reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) ApproveTask(ctx context.Context, actor authz.Actor, taskID uint) (*models.Task, error) {
	if !authz.CanModerate(actor) {
		return nil, authz.ErrForbidden
	}

	var task *models.Task
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		changed, err := r.Tasks.UpdateStatusIf(ctx, taskID, []string{models.TaskStatusPending}, map[string]interface{}{
			"status":         models.TaskStatusActive,
			"is_approved":    true,
			"approved_by_id": actor.ID,
		})
		if err != nil {
			return err
		}
		if !changed {
			return ErrTaskAlreadyReviewed
		}
		found.Status = models.TaskStatusActive
		found.IsApproved = true
		found.ApprovedByID = &actor.ID
		task = found
		return s.log(ctx, r, &models.AdminLog{
			AdminID:      actor.ID,
			Action:       models.AdminActionApproveTask,
			TargetTaskID: &taskID,
			Description:  fmt.Sprintf("Approved task %q", found.Title),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(task.CreatorID, notification.NewEvent(notification.EventTaskReviewed,
		fmt.Sprintf("Your task %q is now live", task.Title),
		map[string]interface{}{"taskId": task.ID}))
	return task, nil
}

func (s *service) RejectTask(ctx context.Context, actor authz.Actor, taskID uint, reason string) (*models.Task, error) {
	if !authz.CanModerate(actor) {
		return nil, authz.ErrForbidden
	}

	var task *models.Task
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		changed, err := r.Tasks.UpdateStatusIf(ctx, taskID, []string{models.TaskStatusPending}, map[string]interface{}{
			"status":           models.TaskStatusRejected,
			"rejection_reason": reason,
		})
		if err != nil {
			return err
		}
		if !changed {
			return ErrTaskAlreadyReviewed
		}
		found.Status = models.TaskStatusRejected
		found.RejectionReason = reason
		task = found
		return s.log(ctx, r, &models.AdminLog{
			AdminID:      actor.ID,
			Action:       models.AdminActionRejectTask,
			TargetTaskID: &taskID,
			Description:  fmt.Sprintf("Rejected task %q", found.Title),
			Metadata:     models.JSON{"reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(task.CreatorID, notification.NewEvent(notification.EventTaskReviewed,
		fmt.Sprintf("Your task %q was rejected", task.Title),
		map[string]interface{}{"taskId": task.ID, "reason": reason}))
	return task, nil
}

func (s *service) ApproveWithdrawal(ctx context.Context, actor authz.Actor, txID uint, settlementRef string) (*models.Transaction, error) {
	if !authz.CanApproveWithdrawal(actor) {
		return nil, authz.ErrForbidden
	}

	txn, err := s.ledger.ApproveWithdrawal(ctx, txID, actor.ID, settlementRef)
	if err != nil {
		return nil, err
	}

	logErr := s.uow.Do(ctx, func(r repositories.Repos) error {
		return s.log(ctx, r, &models.AdminLog{
			AdminID:             actor.ID,
			Action:              models.AdminActionProcessWithdrawal,
			TargetUserID:        &txn.UserID,
			TargetTransactionID: &txID,
			Description:         fmt.Sprintf("Approved withdrawal of %s", txn.Amount),
			Metadata:            models.JSON{"decision": "approved", "settlementRef": settlementRef},
		})
	})
	if logErr != nil {
		return nil, logErr
	}

	s.notifier.NotifyUser(txn.UserID, notification.NewEvent(notification.EventWithdrawalDone,
		fmt.Sprintf("Your withdrawal of %s has been processed", txn.Amount),
		map[string]interface{}{"transactionId": txn.ID, "status": txn.Status}))
	return txn, nil
}

func (s *service) RejectWithdrawal(ctx context.Context, actor authz.Actor, txID uint, reason string) (*models.Transaction, error) {
	if !authz.CanApproveWithdrawal(actor) {
		return nil, authz.ErrForbidden
	}

	txn, err := s.ledger.RejectWithdrawal(ctx, txID, actor.ID, reason)
	if err != nil {
		return nil, err
	}

	logErr := s.uow.Do(ctx, func(r repositories.Repos) error {
		return s.log(ctx, r, &models.AdminLog{
			AdminID:             actor.ID,
			Action:              models.AdminActionProcessWithdrawal,
			TargetUserID:        &txn.UserID,
			TargetTransactionID: &txID,
			Description:         fmt.Sprintf("Rejected withdrawal of %s", txn.Amount),
			Metadata:            models.JSON{"decision": "rejected", "reason": reason},
		})
	})
	if logErr != nil {
		return nil, logErr
	}

	s.notifier.NotifyUser(txn.UserID, notification.NewEvent(notification.EventWithdrawalDone,
		fmt.Sprintf("Your withdrawal of %s was rejected and refunded", txn.Amount),
		map[string]interface{}{"transactionId": txn.ID, "status": txn.Status, "reason": reason}))
	return txn, nil
}

func (s *service) GetDashboard(ctx context.Context, actor authz.Actor) (*Dashboard, error) {
	if !authz.CanModerate(actor) {
		return nil, authz.ErrForbidden
	}

	d := &Dashboard{}
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		if d.TotalUsers, err = r.Users.Count(ctx, repositories.UserFilter{}); err != nil {
			return err
		}
		if d.TotalWorkers, err = r.Users.Count(ctx, repositories.UserFilter{Role: models.RoleWorker}); err != nil {
			return err
		}
		if d.TotalCreators, err = r.Users.Count(ctx, repositories.UserFilter{Role: models.RoleCreator}); err != nil {
			return err
		}
		pending := false
		if d.PendingUsers, err = r.Users.Count(ctx, repositories.UserFilter{IsApproved: &pending}); err != nil {
			return err
		}
		if d.TotalTasks, err = r.Tasks.Count(ctx, repositories.TaskFilter{}); err != nil {
			return err
		}
		if d.PendingTasks, err = r.Tasks.Count(ctx, repositories.TaskFilter{Status: models.TaskStatusPending}); err != nil {
			return err
		}
		if d.ActiveTasks, err = r.Tasks.Count(ctx, repositories.TaskFilter{Status: models.TaskStatusActive}); err != nil {
			return err
		}
		if d.PendingSubmissions, err = r.Submissions.Count(ctx, repositories.SubmissionFilter{Status: models.SubmissionStatusPending}); err != nil {
			return err
		}
		if d.PendingWithdrawals, err = r.Ledger.Count(ctx, repositories.TransactionFilter{
			Type:   models.TransactionTypeWithdrawal,
			Status: models.TransactionStatusPending,
		}); err != nil {
			return err
		}
		if d.TotalPaidOut, err = r.Ledger.SumCompleted(ctx, models.TransactionTypeEarning); err != nil {
			return err
		}
		if d.TotalWithdrawn, err = r.Ledger.SumCompleted(ctx, models.TransactionTypeWithdrawal); err != nil {
			return err
		}
		d.PlatformRevenue, err = r.Ledger.SumCompleted(ctx, models.TransactionTypeCommission)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) ListUsers(ctx context.Context, actor authz.Actor, filter repositories.UserFilter) ([]models.User, int64, error) {
	if !authz.CanModerate(actor) {
		return nil, 0, authz.ErrForbidden
	}
	var (
		users []models.User
		total int64
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		users, total, err = r.Users.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *service) ListWithdrawals(ctx context.Context, actor authz.Actor, status string, limit, offset int) ([]models.Transaction, int64, error) {
	if !authz.CanModerate(actor) {
		return nil, 0, authz.ErrForbidden
	}
	var (
		txns  []models.Transaction
		total int64
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		txns, total, err = r.Ledger.List(ctx, repositories.TransactionFilter{
			Type:   models.TransactionTypeWithdrawal,
			Status: status,
			Limit:  limit,
			Offset: offset,
		})
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (s *service) ListLogs(ctx context.Context, actor authz.Actor, filter repositories.AdminLogFilter) ([]models.AdminLog, int64, error) {
	if !authz.CanModerate(actor) {
		return nil, 0, authz.ErrForbidden
	}
	var (
		logs  []models.AdminLog
		total int64
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		logs, total, err = r.AdminLogs.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
