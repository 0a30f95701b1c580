package server

import (
	"github.com/00xu00/blog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetWritingSuggestions handles POST /api/ai/suggestions
// @Summary Writing suggestions
// @Description Outline, code and documentation ideas for a topic.
// @Tags ai
// @Security BearerAuth
// @Param request body service.SuggestionInput true "Topic"
// @Success 200 {array} enrichment.Suggestion
// @Failure 502 {object} models.ErrorResponse
// @Router /ai/suggestions [post]
func (s *Server) GetWritingSuggestions(c *fiber.Ctx) error {
	var req service.SuggestionInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	suggestions, err := s.writingService.Suggestions(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(suggestions)
}

// GetFeatureFlags handles GET /api/feature-flags: every flag evaluated for
// the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(s.featureFlags.Snapshot(currentUserID(c)))
}
