package repository

import (
	"context"
	"strings"
	"time"

	"github.com/00xu00/blog/internal/cache"
	"github.com/00xu00/blog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Post, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, includeDrafts bool, limit, offset int) ([]*models.Post, error)
	ListLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	ListFavoritedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Latest(ctx context.Context, limit int) ([]*models.Post, error)
	Search(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id, authorID uint) error
	IncrementViews(ctx context.Context, id uint) error
	ApplyEnrichment(ctx context.Context, id uint, tags []string, summary string) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post and bumps the author's articles_count in one
// transaction.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", post.AuthorID).
			UpdateColumn("articles_count", gorm.Expr("articles_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", post.AuthorID)
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidateUser(ctx, post.AuthorID)
	cache.InvalidateLatest(ctx)
	return nil
}

// GetByID returns the stored post with its author projection. Viewer
// flags are left unset so the cached copy is viewer independent.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("Post", id)
			}
			return err
		}
		return attachPostAuthors(ctx, r.db, []*models.Post{&post})
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, attachPostAuthors(ctx, r.db, posts)
}

func (r *postRepository) published() *gorm.DB {
	return r.db.Model(&models.Post{}).Where("posts.status = ?", models.PostStatusPublished)
}

func (r *postRepository) list(ctx context.Context, q *gorm.DB, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := q.WithContext(ctx).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, attachPostAuthors(ctx, r.db, posts)
}

func (r *postRepository) ListPublished(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.list(ctx, r.published().Order("posts.created_at DESC, posts.id DESC"), limit, offset)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, includeDrafts bool, limit, offset int) ([]*models.Post, error) {
	q := r.db.Model(&models.Post{}).Where("posts.author_id = ?", authorID)
	if !includeDrafts {
		q = q.Where("posts.status = ?", models.PostStatusPublished)
	}
	return r.list(ctx, q.Order("posts.created_at DESC, posts.id DESC"), limit, offset)
}

func (r *postRepository) ListLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	q := r.published().
		Joins("JOIN likes ON likes.post_id = posts.id AND likes.user_id = ?", userID).
		Order("likes.created_at DESC, likes.id DESC")
	return r.list(ctx, q, limit, offset)
}

func (r *postRepository) ListFavoritedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	q := r.published().
		Joins("JOIN favorites ON favorites.post_id = posts.id AND favorites.user_id = ?", userID).
		Order("favorites.created_at DESC, favorites.id DESC")
	return r.list(ctx, q, limit, offset)
}

// Latest returns the newest published posts; the result is cached briefly
// because the home page polls it.
func (r *postRepository) Latest(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, cache.LatestKey(limit), &posts, cache.LatestPostsTTL, func() error {
		found, err := r.list(ctx, r.published().Order("posts.created_at DESC, posts.id DESC"), limit, 0)
		if err != nil {
			return err
		}
		posts = found
		return nil
	})
	return posts, err
}

// Search matches keyword case-insensitively against title, subtitle and
// content of published posts.
func (r *postRepository) Search(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, error) {
	like := "%" + strings.ToLower(keyword) + "%"
	q := r.published().
		Where("LOWER(posts.title) LIKE ? OR LOWER(posts.subtitle) LIKE ? OR LOWER(posts.content) LIKE ?", like, like, like).
		Order("posts.created_at DESC, posts.id DESC")
	return r.list(ctx, q, limit, offset)
}

// Update writes the editable columns of post.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(post).
		Select("title", "subtitle", "content", "tags", "status", "summary", "updated_at").
		Updates(post).Error
	if err != nil {
		return err
	}
	cache.InvalidatePost(ctx, post.ID)
	cache.InvalidateLatest(ctx)
	return nil
}

// Delete removes the post owned by authorID together with its engagement
// rows, comments and history, and lowers the author's articles_count.
func (r *postRepository) Delete(ctx context.Context, id, authorID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "author_id").
			Where("id = ? AND author_id = ?", id, authorID).
			First(&post).Error; err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("Post", id)
			}
			return err
		}

		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.Comment{}, &models.Like{}, &models.Favorite{}, &models.History{}} {
			if err := tx.Where("post_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", authorID).
			UpdateColumn("articles_count", clampedDecrement("articles_count", 1)).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id)
	cache.InvalidateUser(ctx, authorID)
	cache.InvalidateLatest(ctx)
	return nil
}

// IncrementViews adds exactly one view in a single UPDATE statement.
func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

// ApplyEnrichment merges generated tags into the stored tags and fills the
// summary only when it is still empty. The row is re-read under a lock so
// an edit that lands while the provider is running is kept.
func (r *postRepository) ApplyEnrichment(ctx context.Context, id uint, tags []string, summary string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "tags", "summary").
			First(&post, id).Error; err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("Post", id)
			}
			return err
		}

		merged := models.NormalizeTags(append(append([]string{}, post.Tags...), tags...))
		if post.Summary != "" {
			summary = post.Summary
		}
		return tx.Model(&post).
			Select("tags", "summary", "updated_at").
			Updates(&models.Post{Tags: merged, Summary: summary, UpdatedAt: time.Now()}).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id)
	return nil
}
