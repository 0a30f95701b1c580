package server

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination reads limit (1..100) and offset (>= 0); skip is accepted
// as an alias of offset. Malformed or out-of-range values get a 400 and
// errResponseWritten, like parseID.
func parsePagination(c *fiber.Ctx, defaultLimit int) (Pagination, error) {
	limit, err := parseQueryInt(c, "limit", defaultLimit, 1, maxPaginationLimit)
	if err != nil {
		return Pagination{}, err
	}

	offsetParam := "offset"
	if c.Query("offset") == "" && c.Query("skip") != "" {
		offsetParam = "skip"
	}
	offset, err := parseQueryInt(c, offsetParam, 0, 0, math.MaxInt32)
	if err != nil {
		return Pagination{}, err
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}, nil
}

// parseQueryInt reads an optional integer query parameter bounded to
// [lo, hi]. An absent parameter yields def.
func parseQueryInt(c *fiber.Ctx, name string, def, lo, hi int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		msg := fmt.Sprintf("%s must be an integer between %d and %d", name, lo, hi)
		if hi == math.MaxInt32 {
			msg = fmt.Sprintf("%s must be an integer >= %d", name, lo)
		}
		_ = respondServiceError(c, models.NewValidationError(msg))
		return 0, errResponseWritten
	}
	return n, nil
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the request body into dst, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "postId" -> "post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// respondServiceError writes err with the status its code maps to. Server
// side failures are logged here since the client only sees a generic body.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "status", status, "error", err)
	}
	return models.RespondWithError(c, status, err)
}

// currentUserID returns the id AuthRequired stored in locals.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}
