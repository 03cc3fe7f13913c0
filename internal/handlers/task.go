package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"gigpay/internal/middleware"
	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/authz"
	"gigpay/internal/services/task"
	"gigpay/internal/utils"
)

type TaskHandler struct {
	taskService task.Service
}

func NewTaskHandler(taskService task.Service) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func actorFrom(c *fiber.Ctx) (authz.Actor, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return authz.Actor{}, false
	}
	return authz.Actor{ID: claims.UserID, Role: claims.Role}, true
}

// ListTasks is the worker feed: approved, active tasks with open slots.
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	limit, offset := parsePaging(c)
	tasks, total, err := h.taskService.ListAvailable(c.Context(), c.Query("category"), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, tasks, total, limit, offset)
}

// ListMyTasks returns the caller's own tasks in any state.
func (h *TaskHandler) ListMyTasks(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	limit, offset := parsePaging(c)
	tasks, total, err := h.taskService.List(c.Context(), repositories.TaskFilter{
		CreatorID: claims.UserID,
		Status:    c.Query("status"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, tasks, total, limit, offset)
}

// GetTaskConfigs exposes the category vocabulary to clients.
func (h *TaskHandler) GetTaskConfigs(c *fiber.Ctx) error {
	return utils.Success(c, fiber.Map{
		"categories":        models.TaskCategories,
		"withdrawalMethods": models.WithdrawalMethods,
	})
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid task id")
	}

	found, err := h.taskService.Get(c.Context(), uint(id))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, found)
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Reward      decimal.Decimal `json:"reward"`
		TotalSlots  int             `json:"totalSlots"`
		ExpiresAt   *time.Time      `json:"expiresAt"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Title == "" || input.Description == "" {
		return utils.BadRequest(c, "title and description are required")
	}

	created, err := h.taskService.Create(c.Context(), actor, task.CreateRequest{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Reward:      input.Reward,
		TotalSlots:  input.TotalSlots,
		ExpiresAt:   input.ExpiresAt,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Created(c, created)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid task id")
	}

	var input struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Category    *string          `json:"category"`
		Reward      *decimal.Decimal `json:"reward"`
		TotalSlots  *int             `json:"totalSlots"`
		ExpiresAt   *time.Time       `json:"expiresAt"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	updated, err := h.taskService.Update(c.Context(), actor, uint(id), task.UpdateRequest{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Reward:      input.Reward,
		TotalSlots:  input.TotalSlots,
		ExpiresAt:   input.ExpiresAt,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, updated)
}

func (h *TaskHandler) PauseTask(c *fiber.Ctx) error {
	return h.setPaused(c, true)
}

func (h *TaskHandler) ResumeTask(c *fiber.Ctx) error {
	return h.setPaused(c, false)
}

func (h *TaskHandler) setPaused(c *fiber.Ctx, paused bool) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid task id")
	}

	updated, err := h.taskService.SetPaused(c.Context(), actor, uint(id), paused)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, updated)
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid task id")
	}

	if err := h.taskService.Delete(c.Context(), actor, uint(id)); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "task deleted"})
}
