package service

import (
	"context"

	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/repository"
)

type EngagementService struct {
	engagementRepo repository.EngagementRepository
	postRepo       repository.PostRepository
}

func NewEngagementService(engagementRepo repository.EngagementRepository, postRepo repository.PostRepository) *EngagementService {
	return &EngagementService{engagementRepo: engagementRepo, postRepo: postRepo}
}

// LikePost records the like and returns the post with fresh counters.
func (s *EngagementService) LikePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.apply(ctx, userID, postID, s.engagementRepo.Like)
}

func (s *EngagementService) UnlikePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.apply(ctx, userID, postID, s.engagementRepo.Unlike)
}

func (s *EngagementService) FavoritePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.apply(ctx, userID, postID, s.engagementRepo.Favorite)
}

func (s *EngagementService) UnfavoritePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.apply(ctx, userID, postID, s.engagementRepo.Unfavorite)
}

func (s *EngagementService) apply(ctx context.Context, userID, postID uint, op func(context.Context, uint, uint) error) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() && post.AuthorID != userID {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if err := op(ctx, userID, postID); err != nil {
		return nil, err
	}

	post, err = s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := annotatePosts(ctx, s.engagementRepo, userID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}
