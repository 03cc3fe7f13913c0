package repositories

import (
	"context"

	"gigpay/internal/models"
)

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status        string
	Category      string
	CreatorID     uint
	IsApproved    *bool
	OnlyAvailable bool
	Limit         int
	Offset        int
}

// TaskRepository handles task persistence. Slot movements are single
// conditional updates so concurrent submitters cannot oversell capacity.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uint) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)

	// ClaimSlot atomically decrements availableSlots while it is positive and
	// marks the task completed when it reaches zero. Reports false when no
	// slot was free.
	ClaimSlot(ctx context.Context, taskID uint) (bool, error)

	// ReleaseSlot atomically returns one slot (capped at totalSlots) and
	// reopens a task completed solely by slot exhaustion. Reports false when
	// all slots were already free.
	ReleaseSlot(ctx context.Context, taskID uint) (bool, error)

	// UpdateStatusIf applies updates only while the task still has one of
	// fromStatuses; reports whether a row changed.
	UpdateStatusIf(ctx context.Context, id uint, fromStatuses []string, updates map[string]interface{}) (bool, error)
}
