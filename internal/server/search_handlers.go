package server

import (
	"github.com/00xu00/blog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchBlogs handles GET /api/search/blogs?keyword=...
// @Summary Search published posts
// @Description Matches title, subtitle and content. Content is cut to a 200 character snippet.
// @Tags search
// @Param keyword query string true "1..100 characters"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /search/blogs [get]
func (s *Server) SearchBlogs(c *fiber.Ctx) error {
	keyword := c.Query("keyword", c.Query("q"))
	page, err := parsePagination(c, 10)
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	posts, err := s.searchService.SearchPosts(c.UserContext(), keyword, page.Limit, page.Offset, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// RecordSearch handles POST /api/search
func (s *Server) RecordSearch(c *fiber.Ctx) error {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.searchService.RecordSearch(c.UserContext(), currentUserID(c), req.Keyword); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSearchHistory handles GET /api/search/history?limit=N (1..100, default 10)
func (s *Server) GetSearchHistory(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", service.DefaultSearchHistory, 1, service.MaxSearchHistoryResult)
	if err != nil {
		return nil
	}
	entries, err := s.searchService.History(c.UserContext(), currentUserID(c), limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entries)
}

// ClearSearchHistory handles DELETE /api/search/history
func (s *Server) ClearSearchHistory(c *fiber.Ctx) error {
	n, err := s.searchService.ClearHistory(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": n})
}
