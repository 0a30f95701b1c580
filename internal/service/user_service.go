package service

import (
	"context"
	"errors"
	"strings"

	"github.com/00xu00/blog/internal/imaging"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/repository"
	"github.com/00xu00/blog/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo       repository.UserRepository
	followRepo     repository.FollowRepository
	maxAvatarBytes int
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
}

type UpdateProfileInput struct {
	UserID   uint
	Username *string `json:"username" validate:"omitempty,username"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, maxAvatarBytes int) *UserService {
	return &UserService{
		userRepo:       userRepo,
		followRepo:     followRepo,
		maxAvatarBytes: maxAvatarBytes,
	}
}

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if verr := validation.Struct(in); verr != nil {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords produce the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Incorrect email or password")

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, invalid
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalid
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile returns a user with IsFollowing set relative to viewerID.
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != id {
		following, err := s.followRepo.IsFollowing(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		user.IsFollowing = following
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Username != nil {
		trimmed := strings.TrimSpace(*in.Username)
		in.Username = &trimmed
	}
	if verr := validation.Struct(in); verr != nil {
		return nil, verr
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAvatar converts an uploaded image into a WebP data URI and stores
// it on the user.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, content []byte) (*models.User, error) {
	avatar, err := imaging.Avatar(content, s.maxAvatarBytes)
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrEmpty), errors.Is(err, imaging.ErrTooLarge),
			errors.Is(err, imaging.ErrUnsupported), errors.Is(err, imaging.ErrInvalid):
			return nil, models.NewValidationError(err.Error())
		}
		return nil, models.NewInternalError(err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Avatar = avatar
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
