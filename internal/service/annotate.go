// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	"fmt"

	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/repository"
)

// viewerFlags is the subset of EngagementRepository needed to mark posts
// the viewer liked or favorited.
type viewerFlags interface {
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	FavoritedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
}

var _ viewerFlags = (repository.EngagementRepository)(nil)

// annotatePosts sets IsLiked and IsFavorited for viewerID with two set
// lookups. Anonymous viewers leave every flag false.
func annotatePosts(ctx context.Context, flags viewerFlags, viewerID uint, posts []*models.Post) error {
	if viewerID == 0 || len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	liked, err := flags.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return fmt.Errorf("load liked posts: %w", err)
	}
	favorited, err := flags.FavoritedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return fmt.Errorf("load favorited posts: %w", err)
	}

	likedSet, favSet := idSet(liked), idSet(favorited)
	for _, p := range posts {
		_, p.IsLiked = likedSet[p.ID]
		_, p.IsFavorited = favSet[p.ID]
	}
	return nil
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
