package handlers

import (
	"github.com/gofiber/fiber/v2"

	"gigpay/internal/repositories"
	"gigpay/internal/services/admin"
	"gigpay/internal/utils"
)

type AdminHandler struct {
	adminService admin.Service
}

func NewAdminHandler(adminService admin.Service) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) GetDashboard(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	dashboard, err := h.adminService.GetDashboard(c.Context(), actor)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, dashboard)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	limit, offset := parsePaging(c)
	filter := repositories.UserFilter{
		Role:   c.Query("role"),
		Limit:  limit,
		Offset: offset,
	}
	if c.Query("approved") != "" {
		approved := c.QueryBool("approved")
		filter.IsApproved = &approved
	}

	users, total, err := h.adminService.ListUsers(c.Context(), actor, filter)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, users, total, limit, offset)
}

func (h *AdminHandler) ApproveUser(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid user id")
	}

	approved, err := h.adminService.ApproveUser(c.Context(), actor, uint(id))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, approved)
}

func (h *AdminHandler) RejectUser(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid user id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	rejected, err := h.adminService.RejectUser(c.Context(), actor, uint(id), input.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, rejected)
}

func (h *AdminHandler) ApproveTask(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid task id")
	}

	approved, err := h.adminService.ApproveTask(c.Context(), actor, uint(id))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, approved)
}

func (h *AdminHandler) RejectTask(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid task id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	rejected, err := h.adminService.RejectTask(c.Context(), actor, uint(id), input.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, rejected)
}

func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	limit, offset := parsePaging(c)
	status := c.Query("status", "pending")
	txns, total, err := h.adminService.ListWithdrawals(c.Context(), actor, status, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, txns, total, limit, offset)
}

func (h *AdminHandler) ApproveWithdrawal(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid transaction id")
	}

	var input struct {
		SettlementRef string `json:"settlementRef"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	txn, err := h.adminService.ApproveWithdrawal(c.Context(), actor, uint(id), input.SettlementRef)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, txn)
}

func (h *AdminHandler) RejectWithdrawal(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return utils.BadRequest(c, "invalid transaction id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	txn, err := h.adminService.RejectWithdrawal(c.Context(), actor, uint(id), input.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, txn)
}

func (h *AdminHandler) ListLogs(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	limit, offset := parsePaging(c)
	logs, total, err := h.adminService.ListLogs(c.Context(), actor, repositories.AdminLogFilter{
		Action: c.Query("action"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, logs, total, limit, offset)
}
