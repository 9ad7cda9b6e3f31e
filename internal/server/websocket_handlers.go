package server

import (
	"postboard/internal/featureflags"
	"postboard/internal/middleware"
	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// websocketUpgrade gates GET /api/ws. Anonymous viewers are accepted; a
// valid token query parameter attaches the viewer's user id.
func (s *Server) websocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		viewerID, _ := s.viewerFromToken(c, websocketToken(c))
		if !s.featureFlags.EnabledFor(featureflags.Realtime, viewerID) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundMessage("Realtime updates are disabled"))
		}
		c.Locals("userID", viewerID)
		return c.Next()
	}
}

// WebsocketHandler streams post events to the connected client until
// either side closes.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
