package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"gigpay/internal/middleware"
	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/user"
	"gigpay/internal/utils"
)

type UserHandler struct {
	userService   user.Service
	ledgerService ledger.Service
}

func NewUserHandler(userService user.Service, ledgerService ledger.Service) *UserHandler {
	return &UserHandler{userService: userService, ledgerService: ledgerService}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	profile, err := h.userService.GetProfile(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, profile)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		Name   *string `json:"name"`
		Skills *string `json:"skills"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	profile, err := h.userService.UpdateProfile(c.Context(), claims.UserID, user.UpdateProfileRequest{
		Name:   input.Name,
		Skills: input.Skills,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, profile)
}

func (h *UserHandler) GetWallet(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	wallet, err := h.userService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, wallet)
}

func (h *UserHandler) GetTransactions(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	limit, offset := parsePaging(c)
	txns, total, err := h.userService.GetTransactions(c.Context(), claims.UserID, repositories.TransactionFilter{
		Type:     c.Query("type"),
		TaskType: c.Query("taskType"),
		Status:   c.Query("status"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, txns, total, limit, offset)
}

// GetStatistics returns the profile statistics block plus a ledger
// replay so clients can cross-check the wallet.
func (h *UserHandler) GetStatistics(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	profile, err := h.userService.GetProfile(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	replay, err := h.ledgerService.Replay(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"statistics":  profile.Statistics,
		"streakCount": profile.StreakCount,
		"ledger":      replay,
	})
}

func (h *UserHandler) GetReferrals(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	info, err := h.userService.GetReferrals(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, info)
}

// RequestWithdrawal debits the balance and opens a pending withdrawal.
func (h *UserHandler) RequestWithdrawal(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		Amount  decimal.Decimal `json:"amount"`
		Method  string          `json:"method"`
		Account string          `json:"account"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Account == "" {
		return utils.BadRequest(c, "account is required")
	}

	txn, err := h.ledgerService.RecordWithdrawalRequest(c.Context(), claims.UserID, input.Amount, input.Method, input.Account)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Created(c, txn)
}

func (h *UserHandler) GetWithdrawals(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	limit, offset := parsePaging(c)
	txns, total, err := h.ledgerService.ListTransactions(c.Context(), repositories.TransactionFilter{
		UserID: claims.UserID,
		Type:   models.TransactionTypeWithdrawal,
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Paginated(c, txns, total, limit, offset)
}
