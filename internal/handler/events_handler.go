package handler

import (
	"os"

	"ai-docreview-be/internal/pkg/logger"
	internalWS "ai-docreview-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// EventsHandler upgrades authenticated clients to a websocket and
// attaches them to the hub so they receive their review events live.
type EventsHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewEventsHandler(hub *internalWS.Hub, log logger.ILogger) *EventsHandler {
	return &EventsHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *EventsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}

// ServeWs authenticates the handshake and hands the connection to the
// hub. Browsers cannot set headers on websocket requests, so the token
// may arrive as a query parameter instead.
func (h *EventsHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("events", "invalid token in websocket handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(h.hub, conn, userID)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
