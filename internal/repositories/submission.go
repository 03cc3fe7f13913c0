package repositories

import (
	"context"

	"gigpay/internal/models"
)

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	TaskID   uint
	TaskIDs  []uint
	WorkerID uint
	Status   string
	Limit    int
	Offset   int
}

// SubmissionRepository handles submission persistence. The (task, worker)
// unique index is the atomic check-and-insert guard against duplicates.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByTaskAndWorker(ctx context.Context, taskID, workerID uint) (*models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error)
	Count(ctx context.Context, filter SubmissionFilter) (int64, error)

	// UpdateStatusIf applies updates only while the submission still has
	// fromStatus; reports whether a row changed. Review decisions ride on
	// this so each submission is resolved exactly once.
	UpdateStatusIf(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) (bool, error)
}
