package handlers

import (
	"github.com/gofiber/fiber/v2"

	"gigpay/internal/middleware"
	"gigpay/internal/services/earning"
	"gigpay/internal/utils"
)

type EarnHandler struct {
	earningService earning.Service
}

func NewEarnHandler(earningService earning.Service) *EarnHandler {
	return &EarnHandler{earningService: earningService}
}

// GetCaptchaChallenge issues a fresh single-use challenge.
func (h *EarnHandler) GetCaptchaChallenge(c *fiber.Ctx) error {
	challenge, err := h.earningService.IssueCaptcha(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, challenge)
}

func (h *EarnHandler) CompleteCaptcha(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		ChallengeID string `json:"challengeId"`
		Answer      int    `json:"answer"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.ChallengeID == "" {
		return utils.BadRequest(c, "challengeId is required")
	}

	txn, err := h.earningService.CompleteCaptcha(c.Context(), claims.UserID, input.ChallengeID, input.Answer)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"reward": txn.Amount, "transaction": txn})
}

func (h *EarnHandler) CompleteSpinWheel(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	result, err := h.earningService.CompleteSpinWheel(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, result)
}

func (h *EarnHandler) CompleteDailyLogin(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	result, err := h.earningService.CompleteDailyLogin(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, result)
}

// GetEarnStatus reports remaining plays for today.
func (h *EarnHandler) GetEarnStatus(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	status, err := h.earningService.Status(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, status)
}

func (h *EarnHandler) ApplyReferral(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		ReferralCode string `json:"referralCode"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.ReferralCode == "" {
		return utils.BadRequest(c, "referralCode is required")
	}

	txn, err := h.earningService.ApplyReferral(c.Context(), claims.UserID, input.ReferralCode)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"bonus": txn.Amount, "transaction": txn})
}
