package server

import (
	"github.com/00xu00/blog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages
// @Summary Send a direct message
// @Tags messages
// @Security BearerAuth
// @Param request body service.SendMessageInput true "Message"
// @Success 201 {object} models.Message
// @Failure 404 {object} models.ErrorResponse
// @Router /messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req service.SendMessageInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.SenderID = currentUserID(c)

	msg, err := s.messageService.SendMessage(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetMessages handles GET /api/messages: everything sent or received.
func (s *Server) GetMessages(c *fiber.Ctx) error {
	page, err := parsePagination(c, 50)
	if err != nil {
		return nil
	}
	msgs, err := s.messageService.ListMessages(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msgs)
}

// GetUnreadCount handles GET /api/messages/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	n, err := s.messageService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"unread": n})
}

// GetConversation handles GET /api/messages/with/:userId
func (s *Server) GetConversation(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	page, err := parsePagination(c, 50)
	if err != nil {
		return nil
	}

	msgs, err := s.messageService.Conversation(c.UserContext(), currentUserID(c), otherID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msgs)
}

// MarkMessageRead handles POST /api/messages/:id/read
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	msg, err := s.messageService.MarkRead(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msg)
}
