package server

import (
	"errors"
	"time"

	"github.com/00xu00/blog/internal/cache"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create a user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Account"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Token handles POST /api/auth/token. It accepts JSON {email, password}
// or an OAuth2 password form where username carries the email.
// @Summary Issue access token
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/token [post]
func (s *Server) Token(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("email and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return respondServiceError(c, models.NewInternalError(err))
	}
	return c.JSON(TokenResponse{AccessToken: token, TokenType: "bearer", User: user})
}

// Logout handles POST /api/auth/logout by revoking the presented token
// until it would have expired anyway.
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(*tokenClaims)
	if claims == nil || claims.JTI == "" {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if s.redis == nil {
		return respondServiceError(c, models.NewUpstreamError("Token store", errors.New("redis is not configured")))
	}

	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err := s.redis.Set(c.UserContext(), cache.TokenBlacklistKey(claims.JTI), claims.UserID, ttl).Err(); err != nil {
		return respondServiceError(c, models.NewUpstreamError("Token store", err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendVerificationCode handles POST /api/auth/verification-code
// @Summary Mail an email verification code
// @Tags auth
// @Security BearerAuth
// @Success 202 {object} object{message=string}
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /auth/verification-code [post]
func (s *Server) SendVerificationCode(c *fiber.Ctx) error {
	if err := s.verificationService.SendCode(c.UserContext(), currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "verification code sent"})
}

// VerifyEmail handles POST /api/auth/verify-email
// @Summary Confirm an email verification code
// @Tags auth
// @Security BearerAuth
// @Param request body object{code=string} true "Code"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/verify-email [post]
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	userID := currentUserID(c)
	if err := s.verificationService.VerifyEmail(ctx, userID, req.Code); err != nil {
		return respondServiceError(c, err)
	}
	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
