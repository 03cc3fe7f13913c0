package handlers

import (
	"github.com/gofiber/fiber/v2"

	"gigpay/internal/utils"
)

// HealthCheck reports process liveness.
func HealthCheck(c *fiber.Ctx) error {
	return utils.Success(c, fiber.Map{"status": "ok"})
}
