package server

import (
	"encoding/json"
	"time"

	"conduit/internal/middleware"
	"conduit/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// connectedMessage is the first frame a client receives.
type connectedMessage struct {
	Type   string    `json:"type"`
	UserID uint      `json:"user_id"`
	At     time.Time `json:"at"`
}

// WebsocketHandler handles GET /api/ws. Authenticated clients receive their
// activity events (new articles from followed authors, new followers,
// favorites and comments on their articles) as JSON text frames.
// @Summary Activity stream
// @Tags realtime
// @Security Token
// @Param token query string false "Session token, for clients that cannot set headers"
// @Success 101
// @Failure 426 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	if s.hub == nil {
		return func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				&models.AppError{Code: "REALTIME_DISABLED", Message: "Realtime notifications are disabled"})
		}
	}

	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals(middleware.LocalUserID).(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register rejected", "user_id", userID, "error", err)
			payload, _ := json.Marshal(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, payload)
			_ = conn.Close()
			return
		}

		if hello, err := json.Marshal(connectedMessage{Type: "connected", UserID: userID, At: time.Now().UTC()}); err == nil {
			client.TrySend(hello)
		}

		client.Serve()
	})
}
