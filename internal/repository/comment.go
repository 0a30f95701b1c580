package repository

import (
	"context"

	"github.com/00xu00/blog/internal/cache"
	"github.com/00xu00/blog/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	ListDescendants(ctx context.Context, rootIDs []uint) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, id, userID uint, content string) (*models.Comment, error)
	DeleteSubtree(ctx context.Context, id, userID uint) (int, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create stores the comment and bumps the post's comments_count.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return attachCommentAuthors(ctx, r.db, []*models.Comment{comment})
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, err
	}
	return &comment, nil
}

// ListTopLevel pages through the root comments of a post in creation order.
func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, attachCommentAuthors(ctx, r.db, comments)
}

// ListDescendants returns every comment below rootIDs, loading one level
// of parent_id at a time until a level comes back empty.
func (r *commentRepository) ListDescendants(ctx context.Context, rootIDs []uint) ([]*models.Comment, error) {
	all, err := descendants(ctx, r.db, rootIDs)
	if err != nil {
		return nil, err
	}
	return all, attachCommentAuthors(ctx, r.db, all)
}

func descendants(ctx context.Context, db *gorm.DB, rootIDs []uint) ([]*models.Comment, error) {
	var all []*models.Comment
	seen := make(map[uint]struct{})
	frontier := uniqueIDs(rootIDs)
	for _, id := range frontier {
		seen[id] = struct{}{}
	}
	for len(frontier) > 0 {
		var level []*models.Comment
		if err := db.WithContext(ctx).
			Where("parent_id IN ?", frontier).
			Order("created_at ASC, id ASC").
			Find(&level).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, c := range level {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			all = append(all, c)
			frontier = append(frontier, c.ID)
		}
	}
	return all, nil
}

// UpdateContent edits a comment owned by userID. Someone else's comment is
// reported as not found.
func (r *commentRepository) UpdateContent(ctx context.Context, id, userID uint, content string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&comment).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, err
	}
	comment.Content = content
	if err := r.db.WithContext(ctx).Model(&comment).Select("content", "updated_at").Updates(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, attachCommentAuthors(ctx, r.db, []*models.Comment{&comment})
}

// DeleteSubtree removes the comment owned by userID, all replies below it
// and their likes, and lowers the post's comments_count by the number of
// removed comments. It returns that number.
func (r *commentRepository) DeleteSubtree(ctx context.Context, id, userID uint) (int, error) {
	var removed int
	var postID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&root).Error; err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("Comment", id)
			}
			return err
		}
		postID = root.PostID

		below, err := descendants(ctx, tx, []uint{root.ID})
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(below)+1)
		ids = append(ids, root.ID)
		for _, c := range below {
			ids = append(ids, c.ID)
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		removed = len(ids)
		return tx.Model(&models.Post{}).
			Where("id = ?", root.PostID).
			UpdateColumn("comments_count", clampedDecrement("comments_count", removed)).Error
	})
	if err != nil {
		return 0, err
	}
	cache.InvalidatePost(ctx, postID)
	return removed, nil
}
