package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/00xu00/blog/internal/cache"
	"github.com/00xu00/blog/internal/mail"
	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/observability"
	"github.com/00xu00/blog/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	verificationCodeDigits = 6
	// maxVerificationMisses wrong guesses burn the current code.
	maxVerificationMisses = 5
)

// VerificationService issues and checks one-time email verification codes.
type VerificationService struct {
	userRepo repository.UserRepository
	rdb      *redis.Client
	mailer   mail.Mailer
	ttl      time.Duration
	newCode  func() (string, error)
}

func NewVerificationService(userRepo repository.UserRepository, rdb *redis.Client, mailer mail.Mailer) *VerificationService {
	return &VerificationService{
		userRepo: userRepo,
		rdb:      rdb,
		mailer:   mailer,
		ttl:      cache.VerificationTTL,
		newCode:  randomCode,
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", verificationCodeDigits, n.Int64()), nil
}

func (s *VerificationService) available() error {
	if s.rdb == nil {
		return models.NewUpstreamError("Verification store", errors.New("redis is not configured"))
	}
	return nil
}

// SendCode stores a fresh code for userID, replacing any earlier one, and
// mails it to the user's address.
func (s *VerificationService) SendCode(ctx context.Context, userID uint) error {
	if err := s.available(); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return models.NewConflictError("email already verified")
	}

	code, err := s.newCode()
	if err != nil {
		return models.NewInternalError(err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, cache.VerificationCodeKey(userID), code, s.ttl)
		pipe.Del(ctx, cache.VerificationMissesKey(userID))
		return nil
	})
	if err != nil {
		return models.NewUpstreamError("Verification store", err)
	}

	msg, err := mail.VerificationMessage(user.Email, user.Username, code, int(s.ttl/time.Minute))
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		observability.MailsSent.WithLabelValues("error").Inc()
		middleware.Logger.ErrorContext(ctx, "verification mail failed", "user_id", userID, "error", err)
		return models.NewUpstreamError("Mail relay", err)
	}
	observability.MailsSent.WithLabelValues("sent").Inc()
	return nil
}

// VerifyEmail consumes a matching code and marks the address verified.
// Expired, unknown, reused and wrong codes are all rejected alike; after
// maxVerificationMisses wrong guesses the code is discarded.
func (s *VerificationService) VerifyEmail(ctx context.Context, userID uint, code string) error {
	if err := s.available(); err != nil {
		return err
	}
	invalid := models.NewValidationError("invalid or expired verification code")

	code = strings.TrimSpace(code)
	if len(code) != verificationCodeDigits {
		return invalid
	}
	key := cache.VerificationCodeKey(userID)
	stored, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return invalid
	}
	if err != nil {
		return models.NewUpstreamError("Verification store", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		if err := s.recordMiss(ctx, userID); err != nil {
			return err
		}
		return invalid
	}

	// Only the request that deletes the key may use it.
	deleted, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return models.NewUpstreamError("Verification store", err)
	}
	if deleted == 0 {
		return invalid
	}
	_ = s.rdb.Del(ctx, cache.VerificationMissesKey(userID)).Err()
	return s.userRepo.MarkEmailVerified(ctx, userID)
}

// recordMiss counts a wrong guess and discards the code once the limit is
// reached. The counter lives no longer than the code it guards.
func (s *VerificationService) recordMiss(ctx context.Context, userID uint) error {
	missesKey := cache.VerificationMissesKey(userID)
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, missesKey)
		pipe.Expire(ctx, missesKey, s.ttl)
		return nil
	})
	if err != nil {
		return models.NewUpstreamError("Verification store", err)
	}
	if incr.Val() < maxVerificationMisses {
		return nil
	}
	middleware.Logger.WarnContext(ctx, "verification code discarded after repeated misses", "user_id", userID)
	if err := s.rdb.Del(ctx, cache.VerificationCodeKey(userID), missesKey).Err(); err != nil {
		return models.NewUpstreamError("Verification store", err)
	}
	return nil
}
