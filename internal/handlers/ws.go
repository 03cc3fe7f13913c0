package handlers

import (
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"

	"gigpay/internal/services/auth"
	"gigpay/internal/utils"
	ws "gigpay/internal/websocket"
)

type WebsocketHandler struct {
	hub         *ws.Hub
	authService auth.Service
}

func NewWebsocketHandler(hub *ws.Hub, authService auth.Service) *WebsocketHandler {
	return &WebsocketHandler{hub: hub, authService: authService}
}

// Upgrade authenticates the token query parameter and hands the
// connection to the hub. Browsers cannot set headers on websocket
// dials, so the token rides the query string.
func (h *WebsocketHandler) Upgrade(c *fiber.Ctx) error {
	if !fiberws.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	claims, err := h.authService.ValidateToken(c.Query("token"))
	if err != nil {
		return utils.Unauthorized(c, "invalid token")
	}
	c.Locals("userID", claims.UserID)

	return fiberws.New(func(conn *fiberws.Conn) {
		userID, _ := conn.Locals("userID").(uint)
		h.hub.Serve(conn, userID)
	})(c)
}
