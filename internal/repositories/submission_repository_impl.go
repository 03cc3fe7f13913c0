package repositories

import (
	"context"
	"errors"
	"fmt"

	"gigpay/internal/models"

	"gorm.io/gorm"
)

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepository) GetByTaskAndWorker(ctx context.Context, taskID, workerID uint) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND worker_id = ?", taskID, workerID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepository) applyFilter(q *gorm.DB, filter SubmissionFilter) *gorm.DB {
	if filter.TaskID != 0 {
		q = q.Where("task_id = ?", filter.TaskID)
	}
	if len(filter.TaskIDs) > 0 {
		q = q.Where("task_id IN ?", filter.TaskIDs)
	}
	if filter.WorkerID != 0 {
		q = q.Where("worker_id = ?", filter.WorkerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Submission{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	var subs []models.Submission
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Offset(filter.Offset).Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, total, nil
}

func (r *submissionRepository) Count(ctx context.Context, filter SubmissionFilter) (int64, error) {
	var total int64
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Submission{}), filter)
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return total, nil
}

func (r *submissionRepository) UpdateStatusIf(ctx context.Context, id uint, fromStatus string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update submission: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
