package server

import (
	"errors"
	"strconv"

	"github.com/00xu00/blog/internal/cache"
	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// IssueWSTicket handles POST /api/ws/ticket. Browsers cannot set headers on
// a WebSocket handshake, so they trade their bearer token for a short-lived
// single-use ticket passed as ?ticket=.
// @Summary Issue a WebSocket ticket
// @Tags realtime
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return respondServiceError(c, models.NewUpstreamError("Ticket store", errors.New("redis is not configured")))
	}
	ticket := uuid.NewString()
	userID := strconv.FormatUint(uint64(currentUserID(c)), 10)
	if err := s.redis.Set(c.UserContext(), cache.TicketKey(ticket), userID, cache.WSTicketTTL).Err(); err != nil {
		return respondServiceError(c, models.NewUpstreamError("Ticket store", err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}

// WebsocketHandler streams the caller's notifications (new messages, read
// receipts, new followers).
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 || s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
