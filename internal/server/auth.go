package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/00xu00/blog/internal/cache"
	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "inkwell-api"
	tokenAudience = "inkwell-client"
)

var (
	errTokenInvalid = errors.New("invalid or expired token")
	errTokenRevoked = errors.New("token has been revoked")
)

// tokenClaims is what AuthRequired keeps in locals for handlers that need
// more than the user id (logout).
type tokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// AuthRequired returns the authentication middleware. WebSocket paths accept
// a single-use ticket; everything else needs a bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"

		if ticket := c.Query("ticket"); ticket != "" && s.redis != nil {
			userIDStr, err := s.redis.GetDel(c.UserContext(), cache.TicketKey(ticket)).Result()
			if err == nil {
				if userID, parseErr := strconv.ParseUint(userIDStr, 10, 32); parseErr == nil {
					setUser(c, uint(userID))
					return c.Next()
				}
			} else if !errors.Is(err, redis.Nil) {
				middleware.Logger.WarnContext(c.UserContext(), "ws ticket lookup failed", "error", err)
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseToken(c.UserContext(), tokenString)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, errTokenRevoked) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(msg))
		}

		c.Locals("claims", claims)
		setUser(c, claims.UserID)
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// optionalUserID resolves the caller from a bearer token if one is present
// and valid. Anonymous callers get 0.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, false
	}
	claims, err := s.parseToken(c.UserContext(), tokenString)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

// parseToken validates signature, expiry, issuer and audience, then checks
// the jti against the revocation list.
func (s *Server) parseToken(ctx context.Context, tokenString string) (*tokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errTokenInvalid
	}
	if issuer, _ := claims["iss"].(string); issuer != tokenIssuer {
		return nil, errTokenInvalid
	}
	if audience, _ := claims["aud"].(string); audience != tokenAudience {
		return nil, errTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errTokenInvalid
	}

	out := &tokenClaims{UserID: uint(userID)}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if jti, _ := claims["jti"].(string); jti != "" {
		out.JTI = jti
		if s.redis != nil {
			revoked, err := s.redis.Exists(ctx, cache.TokenBlacklistKey(jti)).Result()
			if err == nil && revoked > 0 {
				return nil, errTokenRevoked
			}
		}
	}
	return out, nil
}

// generateToken creates a signed access token for the given user.
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(s.config.JWTExpiry()).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID so a single token can be revoked.
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
