package handlers

import (
	"github.com/gofiber/fiber/v2"

	"gigpay/internal/middleware"
	"gigpay/internal/services/leaderboard"
	"gigpay/internal/utils"
)

type LeaderboardHandler struct {
	leaderboardService leaderboard.Service
}

func NewLeaderboardHandler(leaderboardService leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func (h *LeaderboardHandler) TopWorkers(c *fiber.Ctx) error {
	entries, err := h.leaderboardService.TopWorkers(c.Context(), c.Query("by"), c.QueryInt("limit", 10))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, entries)
}

func (h *LeaderboardHandler) TopCreators(c *fiber.Ctx) error {
	entries, err := h.leaderboardService.TopCreators(c.Context(), c.QueryInt("limit", 10))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, entries)
}

func (h *LeaderboardHandler) MyRank(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	rank, err := h.leaderboardService.MyRank(c.Context(), claims.UserID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, rank)
}
