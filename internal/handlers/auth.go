package handlers

import (
	"github.com/gofiber/fiber/v2"

	"gigpay/internal/middleware"
	"gigpay/internal/services/auth"
	"gigpay/internal/utils"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Skills   string `json:"skills"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Name == "" || input.Email == "" {
		return utils.BadRequest(c, "name and email are required")
	}
	if len(input.Password) < 8 {
		return utils.BadRequest(c, "password must be at least 8 characters")
	}

	user, err := h.authService.Register(c.Context(), auth.RegisterRequest{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
		Skills:   input.Skills,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Created(c, user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	user, tokens, err := h.authService.Login(c.Context(), input.Email, input.Password)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"user": user, "tokens": tokens})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	tokens, err := h.authService.Refresh(c.Context(), input.RefreshToken)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, tokens)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}

	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if len(input.NewPassword) < 8 {
		return utils.BadRequest(c, "password must be at least 8 characters")
	}

	if err := h.authService.ChangePassword(c.Context(), claims.UserID, input.CurrentPassword, input.NewPassword); err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.Map{"message": "password changed"})
}
