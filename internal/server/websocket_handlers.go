package server

import (
	"context"
	"errors"
	"log/slog"

	"tether/internal/middleware"
	"tether/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades GET /api/ws into a notification stream. Frames are
// notifications.Envelope values pushed by the hub; inbound frames only keep
// the connection alive.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userIDVal, ok := conn.Locals("userID").(uint)
		if !ok || userIDVal == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userIDVal, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register rejected",
				slog.Uint64("user_id", uint64(userIDVal)), slog.String("error", err.Error()))
			reason := "server_busy"
			if errors.Is(err, notifications.ErrUserConnLimit) {
				reason = "too_many_connections"
			}
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+reason+`"}`))
			_ = conn.Close()
			return
		}

		// Tell the client how many unread notifications it missed while offline.
		if count, err := s.inbox.UnreadCount(context.Background(), userIDVal); err == nil {
			if frame, err := notifications.EncodeEnvelope("unread_count", fiber.Map{"count": count}); err == nil {
				_ = client.TrySend(frame)
			}
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
