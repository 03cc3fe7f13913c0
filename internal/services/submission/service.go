// Package submission runs the review workflow: workers submit proof
// against a task slot, creators or admins approve or reject, and
// approval pays out through the ledger with the platform commission
// taken off the top. Every review decision is a conditional status flip,
// so a submission resolves exactly once no matter how many concurrent
// reviewers race.
package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/authz"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/notification"
)

// ReviewResult is what an approval produced.
type ReviewResult struct {
	Submission   *models.Submission  `json:"submission"`
	WorkerPayout decimal.Decimal     `json:"workerPayout"`
	Commission   decimal.Decimal     `json:"commission"`
	PayoutTx     *models.Transaction `json:"payoutTransaction,omitempty"`
	CommissionTx *models.Transaction `json:"-"`
}

// Service is the submission workflow API.
type Service interface {
	Create(ctx context.Context, workerID, taskID uint, proof, attachments string) (*models.Submission, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (*models.Submission, error)
	GetMine(ctx context.Context, workerID, taskID uint) (*models.Submission, error)
	ListForTask(ctx context.Context, actor authz.Actor, taskID uint, status string, limit, offset int) ([]models.Submission, int64, error)
	ListForWorker(ctx context.Context, workerID uint, status string, limit, offset int) ([]models.Submission, int64, error)
	Approve(ctx context.Context, actor authz.Actor, subID uint, rating *int, feedback string) (*ReviewResult, error)
	Reject(ctx context.Context, actor authz.Actor, subID uint, reason string) (*models.Submission, error)
}

// Config tunes the platform cut.
type Config struct {
	CommissionRate decimal.Decimal
	MaxRetries     int
}

// DefaultConfig applies the standard 5% commission.
func DefaultConfig() Config {
	return Config{
		CommissionRate: decimal.NewFromFloat(0.05),
		MaxRetries:     3,
	}
}

type service struct {
	uow      repositories.UnitOfWork
	ledger   ledger.Service
	notifier notification.Notifier
	config   Config
	now      func() time.Time
}

// NewService creates a submission service. Notifier may be nil.
func NewService(uow repositories.UnitOfWork, ledgerSvc ledger.Service, notifier notification.Notifier, config Config) Service {
	if notifier == nil {
		notifier = notification.Noop{}
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.CommissionRate.IsZero() {
		config.CommissionRate = decimal.NewFromFloat(0.05)
	}
	return &service{
		uow:      uow,
		ledger:   ledgerSvc,
		notifier: notifier,
		config:   config,
		now:      time.Now,
	}
}

func (s *service) withRetry(ctx context.Context, fn func(r repositories.Repos) error) error {
	var err error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		err = s.uow.Do(ctx, fn)
		if !errors.Is(err, repositories.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: review contention persisted after %d attempts", ledger.ErrTransientFailure, s.config.MaxRetries)
}

// Create claims a slot and records the submission in one transaction.
// A duplicate insert rolls the slot claim back with it.
func (s *service) Create(ctx context.Context, workerID, taskID uint, proof, attachments string) (*models.Submission, error) {
	if proof == "" {
		return nil, ErrEmptyProof
	}

	var (
		sub  *models.Submission
		task *models.Task
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if found.CreatorID == workerID {
			return ErrOwnTask
		}
		if !found.IsApproved || found.Status != models.TaskStatusActive {
			return ErrTaskNotAvailable
		}

		claimed, err := r.Tasks.ClaimSlot(ctx, taskID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrSlotsExhausted
		}

		sub = &models.Submission{
			TaskID:      taskID,
			WorkerID:    workerID,
			Proof:       proof,
			Attachments: attachments,
			Reward:      found.Reward,
			Status:      models.SubmissionStatusPending,
		}
		if err := r.Submissions.Create(ctx, sub); err != nil {
			if errors.Is(err, repositories.ErrDuplicateSubmission) {
				return ErrAlreadySubmitted
			}
			return err
		}
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(task.CreatorID, notification.NewEvent(notification.EventSubmissionCreated,
		fmt.Sprintf("New submission for %q", task.Title),
		map[string]interface{}{"taskId": task.ID, "submissionId": sub.ID}))
	return sub, nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, id uint) (*models.Submission, error) {
	var sub *models.Submission
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Submissions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		task, err := r.Tasks.GetByID(ctx, found.TaskID)
		if err != nil {
			return err
		}
		if !authz.CanViewSubmission(actor, found, task) {
			return authz.ErrForbidden
		}
		sub = found
		return nil
	})
	return sub, err
}

func (s *service) GetMine(ctx context.Context, workerID, taskID uint) (*models.Submission, error) {
	var sub *models.Submission
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		sub, err = r.Submissions.GetByTaskAndWorker(ctx, taskID, workerID)
		return err
	})
	return sub, err
}

func (s *service) ListForTask(ctx context.Context, actor authz.Actor, taskID uint, status string, limit, offset int) ([]models.Submission, int64, error) {
	var (
		subs  []models.Submission
		total int64
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		task, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !authz.CanReviewSubmission(actor, task) {
			return authz.ErrForbidden
		}
		subs, total, err = r.Submissions.List(ctx, repositories.SubmissionFilter{
			TaskID: taskID,
			Status: status,
			Limit:  limit,
			Offset: offset,
		})
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (s *service) ListForWorker(ctx context.Context, workerID uint, status string, limit, offset int) ([]models.Submission, int64, error) {
	var (
		subs  []models.Submission
		total int64
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		subs, total, err = r.Submissions.List(ctx, repositories.SubmissionFilter{
			WorkerID: workerID,
			Status:   status,
			Limit:    limit,
			Offset:   offset,
		})
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// Approve resolves a pending submission, pays the worker the reward
// minus commission and books the commission on the platform wallet, all
// in one transaction.
func (s *service) Approve(ctx context.Context, actor authz.Actor, subID uint, rating *int, feedback string) (*ReviewResult, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, ErrInvalidRating
	}

	var result *ReviewResult
	err := s.withRetry(ctx, func(r repositories.Repos) error {
		sub, err := r.Submissions.GetByID(ctx, subID)
		if err != nil {
			return err
		}
		task, err := r.Tasks.GetByID(ctx, sub.TaskID)
		if err != nil {
			return err
		}
		if !authz.CanReviewSubmission(actor, task) {
			return authz.ErrForbidden
		}

		now := s.now()
		updates := map[string]interface{}{
			"status":         models.SubmissionStatusApproved,
			"is_paid":        true,
			"feedback":       feedback,
			"reviewed_by_id": actor.ID,
			"reviewed_at":    now,
		}
		if rating != nil {
			updates["rating"] = *rating
		}
		flipped, err := r.Submissions.UpdateStatusIf(ctx, subID, models.SubmissionStatusPending, updates)
		if err != nil {
			return err
		}
		if !flipped {
			return reviewConflict(ctx, r, subID)
		}

		commission := sub.Reward.Mul(s.config.CommissionRate).Round(4)
		payout := sub.Reward.Sub(commission)

		payoutTx, err := s.ledger.CreditInTx(ctx, r, ledger.EarningRequest{
			UserID:              sub.WorkerID,
			Amount:              payout,
			Description:         fmt.Sprintf("Payment for %q", task.Title),
			RelatedTaskID:       &sub.TaskID,
			RelatedSubmissionID: &sub.ID,
			ProcessedBy:         &actor.ID,
		})
		if err != nil {
			return err
		}
		commissionTx, err := s.ledger.CommissionInTx(ctx, r, ledger.CommissionRequest{
			Amount:              commission,
			Description:         fmt.Sprintf("Commission on %q", task.Title),
			RelatedTaskID:       &sub.TaskID,
			RelatedSubmissionID: &sub.ID,
			ProcessedBy:         &actor.ID,
		})
		if err != nil {
			return err
		}

		if err := r.Users.ApplyReview(ctx, sub.WorkerID, rating); err != nil {
			return err
		}

		sub.Status = models.SubmissionStatusApproved
		sub.IsPaid = true
		sub.Rating = rating
		sub.Feedback = feedback
		sub.ReviewedByID = &actor.ID
		sub.ReviewedAt = &now
		result = &ReviewResult{
			Submission:   sub,
			WorkerPayout: payout,
			Commission:   commission,
			PayoutTx:     payoutTx,
			CommissionTx: commissionTx,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(result.Submission.WorkerID, notification.NewEvent(notification.EventSubmissionReviewed,
		fmt.Sprintf("Your submission was approved, %s coins credited", result.WorkerPayout),
		map[string]interface{}{"submissionId": result.Submission.ID, "amount": result.WorkerPayout}))
	return result, nil
}

// Reject resolves a pending submission and returns its slot to the
// task. The status flip is the gate: a second reject fails before it can
// release another slot.
func (s *service) Reject(ctx context.Context, actor authz.Actor, subID uint, reason string) (*models.Submission, error) {
	var sub *models.Submission
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Submissions.GetByID(ctx, subID)
		if err != nil {
			return err
		}
		task, err := r.Tasks.GetByID(ctx, found.TaskID)
		if err != nil {
			return err
		}
		if !authz.CanReviewSubmission(actor, task) {
			return authz.ErrForbidden
		}

		now := s.now()
		flipped, err := r.Submissions.UpdateStatusIf(ctx, subID, models.SubmissionStatusPending, map[string]interface{}{
			"status":           models.SubmissionStatusRejected,
			"rejection_reason": reason,
			"reviewed_by_id":   actor.ID,
			"reviewed_at":      now,
		})
		if err != nil {
			return err
		}
		if !flipped {
			return reviewConflict(ctx, r, subID)
		}

		if _, err := r.Tasks.ReleaseSlot(ctx, found.TaskID); err != nil {
			return err
		}

		found.Status = models.SubmissionStatusRejected
		found.RejectionReason = reason
		found.ReviewedByID = &actor.ID
		found.ReviewedAt = &now
		sub = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(sub.WorkerID, notification.NewEvent(notification.EventSubmissionReviewed,
		"Your submission was rejected",
		map[string]interface{}{"submissionId": sub.ID, "reason": reason}))
	return sub, nil
}

// reviewConflict maps a lost status race to the error matching the
// state the submission already reached.
func reviewConflict(ctx context.Context, r repositories.Repos, subID uint) error {
	fresh, err := r.Submissions.GetByID(ctx, subID)
	if err != nil {
		return err
	}
	if fresh.Status == models.SubmissionStatusRejected {
		return ErrAlreadyRejected
	}
	return ErrAlreadyApproved
}
