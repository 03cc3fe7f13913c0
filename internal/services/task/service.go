// Package task manages the creator-posted task marketplace: creation,
// edits, pausing and listings. Slot movement during submissions lives in
// the submission service; admin approval lives in the admin service.
package task

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/authz"
)

// CreateRequest carries the fields a creator supplies for a new task.
type CreateRequest struct {
	Title       string
	Description string
	Category    string
	Reward      decimal.Decimal
	TotalSlots  int
	ExpiresAt   *time.Time
}

// UpdateRequest carries optional edits. Nil fields are left untouched.
type UpdateRequest struct {
	Title       *string
	Description *string
	Category    *string
	Reward      *decimal.Decimal
	TotalSlots  *int
	ExpiresAt   *time.Time
}

// Service is the marketplace API.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, req CreateRequest) (*models.Task, error)
	Get(ctx context.Context, id uint) (*models.Task, error)
	List(ctx context.Context, filter repositories.TaskFilter) ([]models.Task, int64, error)
	ListAvailable(ctx context.Context, category string, limit, offset int) ([]models.Task, int64, error)
	Update(ctx context.Context, actor authz.Actor, taskID uint, req UpdateRequest) (*models.Task, error)
	SetPaused(ctx context.Context, actor authz.Actor, taskID uint, paused bool) (*models.Task, error)
	Delete(ctx context.Context, actor authz.Actor, taskID uint) error
}

type service struct {
	uow repositories.UnitOfWork
}

// NewService creates a marketplace service.
func NewService(uow repositories.UnitOfWork) Service {
	return &service{uow: uow}
}

func validCategory(category string) bool {
	for _, c := range models.TaskCategories {
		if c == category {
			return true
		}
	}
	return false
}

func (s *service) Create(ctx context.Context, actor authz.Actor, req CreateRequest) (*models.Task, error) {
	if !authz.CanCreateTask(actor) {
		return nil, authz.ErrForbidden
	}
	if req.Reward.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidReward
	}
	if req.TotalSlots < 1 {
		return nil, ErrInvalidSlots
	}
	if req.Category == "" {
		req.Category = "other"
	}
	if !validCategory(req.Category) {
		return nil, ErrInvalidCategory
	}

	task := &models.Task{
		CreatorID:   actor.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Reward:      req.Reward,
		TotalSlots:  req.TotalSlots,
		ExpiresAt:   req.ExpiresAt,
	}
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		creator, err := r.Users.GetByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !creator.IsApproved {
			return ErrNotApproved
		}
		if err := r.Tasks.Create(ctx, task); err != nil {
			return err
		}
		return r.Users.IncrementTasksCreated(ctx, actor.ID)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Task, error) {
	var task *models.Task
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		task, err = r.Tasks.GetByID(ctx, id)
		return err
	})
	return task, err
}

func (s *service) List(ctx context.Context, filter repositories.TaskFilter) ([]models.Task, int64, error) {
	var (
		tasks []models.Task
		total int64
	)
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		tasks, total, err = r.Tasks.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// ListAvailable is the worker-facing feed: approved, active, with free
// slots.
func (s *service) ListAvailable(ctx context.Context, category string, limit, offset int) ([]models.Task, int64, error) {
	approved := true
	return s.List(ctx, repositories.TaskFilter{
		Status:        models.TaskStatusActive,
		Category:      category,
		IsApproved:    &approved,
		OnlyAvailable: true,
		Limit:         limit,
		Offset:        offset,
	})
}

func (s *service) Update(ctx context.Context, actor authz.Actor, taskID uint, req UpdateRequest) (*models.Task, error) {
	var task *models.Task
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !authz.CanManageTask(actor, found) {
			return authz.ErrForbidden
		}
		if found.Status == models.TaskStatusCompleted || found.Status == models.TaskStatusRejected {
			return ErrNotEditable
		}

		if req.Title != nil {
			found.Title = *req.Title
		}
		if req.Description != nil {
			found.Description = *req.Description
		}
		if req.Category != nil {
			if !validCategory(*req.Category) {
				return ErrInvalidCategory
			}
			found.Category = *req.Category
		}
		if req.Reward != nil {
			if req.Reward.LessThanOrEqual(decimal.Zero) {
				return ErrInvalidReward
			}
			found.Reward = *req.Reward
		}
		if req.TotalSlots != nil {
			used := found.TotalSlots - found.AvailableSlots
			if *req.TotalSlots < 1 {
				return ErrInvalidSlots
			}
			if *req.TotalSlots < used {
				return ErrSlotShrink
			}
			found.TotalSlots = *req.TotalSlots
			found.AvailableSlots = *req.TotalSlots - used
		}
		if req.ExpiresAt != nil {
			found.ExpiresAt = req.ExpiresAt
		}

		if err := r.Tasks.Update(ctx, found); err != nil {
			return err
		}
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *service) SetPaused(ctx context.Context, actor authz.Actor, taskID uint, paused bool) (*models.Task, error) {
	var task *models.Task
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !authz.CanManageTask(actor, found) {
			return authz.ErrForbidden
		}

		from, to := models.TaskStatusActive, models.TaskStatusPaused
		if !paused {
			from, to = models.TaskStatusPaused, models.TaskStatusActive
		}
		changed, err := r.Tasks.UpdateStatusIf(ctx, taskID, []string{from}, map[string]interface{}{"status": to})
		if err != nil {
			return err
		}
		if !changed {
			return ErrNotEditable
		}
		found.Status = to
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task that has no submissions yet. Tasks with work
// against them keep their history.
func (s *service) Delete(ctx context.Context, actor authz.Actor, taskID uint) error {
	return s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !authz.CanManageTask(actor, found) {
			return authz.ErrForbidden
		}
		count, err := r.Submissions.Count(ctx, repositories.SubmissionFilter{TaskID: taskID})
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrNotEditable
		}
		return r.Tasks.Delete(ctx, taskID)
	})
}
