package server

import "github.com/gofiber/fiber/v2"

// GetMyHistory handles GET /api/histories/me, newest first.
// @Summary Browsing history
// @Tags histories
// @Security BearerAuth
// @Success 200 {array} models.History
// @Router /histories/me [get]
func (s *Server) GetMyHistory(c *fiber.Ctx) error {
	page, err := parsePagination(c, 20)
	if err != nil {
		return nil
	}
	entries, err := s.viewService.ListHistory(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entries)
}

// ClearMyHistory handles DELETE /api/histories/me
func (s *Server) ClearMyHistory(c *fiber.Ctx) error {
	n, err := s.viewService.ClearHistory(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": n})
}

// DeleteHistoryEntry handles DELETE /api/histories/me/:postId
func (s *Server) DeleteHistoryEntry(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	if err := s.viewService.DeleteHistory(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
