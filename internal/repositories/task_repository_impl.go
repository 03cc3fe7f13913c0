package repositories

import (
	"context"
	"errors"
	"fmt"

	"gigpay/internal/models"

	"gorm.io/gorm"
)

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) applyFilter(q *gorm.DB, filter TaskFilter) *gorm.DB {
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.CreatorID != 0 {
		q = q.Where("creator_id = ?", filter.CreatorID)
	}
	if filter.IsApproved != nil {
		q = q.Where("is_approved = ?", *filter.IsApproved)
	}
	if filter.OnlyAvailable {
		q = q.Where("available_slots > 0")
	}
	return q
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Task{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	var tasks []models.Task
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Offset(filter.Offset).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

func (r *taskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var total int64
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Task{}), filter)
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, nil
}

func (r *taskRepository) ClaimSlot(ctx context.Context, taskID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND available_slots > 0", taskID).
		Updates(map[string]interface{}{
			"available_slots": gorm.Expr("available_slots - 1"),
			"status": gorm.Expr(
				"CASE WHEN available_slots - 1 = 0 THEN ? ELSE status END",
				models.TaskStatusCompleted),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim slot: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *taskRepository) ReleaseSlot(ctx context.Context, taskID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND available_slots < total_slots", taskID).
		Updates(map[string]interface{}{
			"available_slots": gorm.Expr("available_slots + 1"),
			"status": gorm.Expr(
				"CASE WHEN status = ? THEN ? ELSE status END",
				models.TaskStatusCompleted, models.TaskStatusActive),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to release slot: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *taskRepository) UpdateStatusIf(ctx context.Context, id uint, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update task status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
