package repository

import (
	"context"

	"github.com/00xu00/blog/internal/cache"
	"github.com/00xu00/blog/internal/models"

	"gorm.io/gorm"
)

// EngagementRepository covers likes and favorites on posts and likes on
// comments. Every join-row write moves its counter in the same transaction.
type EngagementRepository interface {
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	Favorite(ctx context.Context, userID, postID uint) error
	Unfavorite(ctx context.Context, userID, postID uint) error
	LikeComment(ctx context.Context, userID, commentID uint) error
	UnlikeComment(ctx context.Context, userID, commentID uint) error

	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	FavoritedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error)
	RecentLikedPostIDs(ctx context.Context, userID uint, limit int) ([]uint, error)
	RecentFavoritedPostIDs(ctx context.Context, userID uint, limit int) ([]uint, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// edge describes one join table and the counter it feeds.
type edge struct {
	target    func() any // model owning the counter
	resource  string     // name used in NotFound errors
	column    string     // counter column on target
	duplicate string
	missing   string
}

var (
	likeEdge = edge{
		target: func() any { return &models.Post{} }, resource: "Post", column: "likes_count",
		duplicate: "already liked", missing: "not liked",
	}
	favoriteEdge = edge{
		target: func() any { return &models.Post{} }, resource: "Post", column: "favorites_count",
		duplicate: "already favorited", missing: "not favorited",
	}
	commentLikeEdge = edge{
		target: func() any { return &models.Comment{} }, resource: "Comment", column: "likes_count",
		duplicate: "already liked", missing: "not liked",
	}
)

func (r *engagementRepository) add(ctx context.Context, e edge, targetID uint, row any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(e.target()).Where("id = ?", targetID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError(e.resource, targetID)
		}
		if err := tx.Create(row).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError(e.duplicate)
			}
			return err
		}
		return tx.Model(e.target()).
			Where("id = ?", targetID).
			UpdateColumn(e.column, gorm.Expr(e.column+" + 1")).Error
	})
}

func (r *engagementRepository) remove(ctx context.Context, e edge, targetID uint, row any, where string, args ...any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(where, args...).Delete(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError(e.missing)
		}
		return tx.Model(e.target()).
			Where("id = ? AND "+e.column+" > 0", targetID).
			UpdateColumn(e.column, gorm.Expr(e.column+" - 1")).Error
	})
}

func (r *engagementRepository) Like(ctx context.Context, userID, postID uint) error {
	if err := r.add(ctx, likeEdge, postID, &models.Like{UserID: userID, PostID: postID}); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *engagementRepository) Unlike(ctx context.Context, userID, postID uint) error {
	if err := r.remove(ctx, likeEdge, postID, &models.Like{}, "user_id = ? AND post_id = ?", userID, postID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *engagementRepository) Favorite(ctx context.Context, userID, postID uint) error {
	if err := r.add(ctx, favoriteEdge, postID, &models.Favorite{UserID: userID, PostID: postID}); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *engagementRepository) Unfavorite(ctx context.Context, userID, postID uint) error {
	if err := r.remove(ctx, favoriteEdge, postID, &models.Favorite{}, "user_id = ? AND post_id = ?", userID, postID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *engagementRepository) LikeComment(ctx context.Context, userID, commentID uint) error {
	return r.add(ctx, commentLikeEdge, commentID, &models.CommentLike{UserID: userID, CommentID: commentID})
}

func (r *engagementRepository) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	return r.remove(ctx, commentLikeEdge, commentID, &models.CommentLike{}, "user_id = ? AND comment_id = ?", userID, commentID)
}

func (r *engagementRepository) pluckIn(ctx context.Context, model any, column string, userID uint, ids []uint) ([]uint, error) {
	ids = uniqueIDs(ids)
	if userID == 0 || len(ids) == 0 {
		return nil, nil
	}
	var out []uint
	err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &out).Error
	return out, err
}

func (r *engagementRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return r.pluckIn(ctx, &models.Like{}, "post_id", userID, postIDs)
}

func (r *engagementRepository) FavoritedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return r.pluckIn(ctx, &models.Favorite{}, "post_id", userID, postIDs)
}

func (r *engagementRepository) LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error) {
	return r.pluckIn(ctx, &models.CommentLike{}, "comment_id", userID, commentIDs)
}

func (r *engagementRepository) recent(ctx context.Context, model any, userID uint, limit int) ([]uint, error) {
	var out []uint
	err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Pluck("post_id", &out).Error
	return out, err
}

func (r *engagementRepository) RecentLikedPostIDs(ctx context.Context, userID uint, limit int) ([]uint, error) {
	return r.recent(ctx, &models.Like{}, userID, limit)
}

func (r *engagementRepository) RecentFavoritedPostIDs(ctx context.Context, userID uint, limit int) ([]uint, error) {
	return r.recent(ctx, &models.Favorite{}, userID, limit)
}
