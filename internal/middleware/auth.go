// Package middleware provides the authentication and authorization
// layers for the fiber router. The auth middleware validates the JWT,
// checks the token version against the database and stores the claims
// in the request context for handlers to read.
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"gigpay/internal/models"
	"gigpay/internal/services/auth"
	"gigpay/internal/utils"
)

// AuthMiddleware validates bearer tokens on protected routes.
type AuthMiddleware struct {
	authService auth.Service
	users       UserLookup
}

// UserLookup is the slice of the user service the middleware needs to
// confirm the account still exists and the token was not revoked.
type UserLookup interface {
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
}

func NewAuthMiddleware(authService auth.Service, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{authService: authService, users: users}
}

// Handler validates the Authorization header and attaches claims to the
// request context.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := m.authService.ValidateToken(header[len(prefix):])
	if err != nil {
		return utils.Unauthorized(c, "invalid token")
	}

	user, err := m.users.GetProfile(c.UserContext(), claims.UserID)
	if err != nil {
		return utils.Unauthorized(c, "invalid token")
	}
	if user.TokenVersion != claims.TokenVersion {
		return utils.Unauthorized(c, "session expired")
	}
	if !user.IsActive {
		return utils.Forbidden(c, "account disabled")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// Claims extracts the verified claims a protected handler runs under.
func Claims(c *fiber.Ctx) (*models.UserClaims, bool) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	return claims, ok
}

// AdminOnly rejects requests whose claims lack the admin role.
func AdminOnly(c *fiber.Ctx) error {
	claims, ok := Claims(c)
	if !ok {
		return utils.Unauthorized(c, "unauthorized")
	}
	if !claims.IsAdmin() {
		return utils.Forbidden(c, "insufficient permissions")
	}
	return c.Next()
}

// RequireRole rejects requests whose claims match none of the roles.
// Admins always pass.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return utils.Unauthorized(c, "unauthorized")
		}
		if claims.IsAdmin() {
			return c.Next()
		}
		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		return utils.Forbidden(c, "insufficient permissions")
	}
}
