package service

import (
	"context"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/notifications"
	"github.com/00xu00/blog/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	publisher  notifications.Publisher
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, publisher notifications.Publisher) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, publisher: publisher}
}

func (s *FollowService) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return models.NewValidationError("you cannot follow yourself")
	}
	if err := s.followRepo.Follow(ctx, followerID, followedID); err != nil {
		return err
	}

	if s.publisher != nil {
		event := notifications.Event{
			Type:    notifications.EventFollowNew,
			Payload: map[string]uint{"follower_id": followerID},
		}
		if err := s.publisher.PublishUser(ctx, followedID, event); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish follow event",
				"followed_id", followedID, "error", err)
		}
	}
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return models.NewValidationError("you cannot unfollow yourself")
	}
	return s.followRepo.Unfollow(ctx, followerID, followedID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.followRepo.IsFollowing(ctx, followerID, followedID)
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowers(ctx, userID, limit, offset)
}

func (s *FollowService) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowing(ctx, userID, limit, offset)
}
