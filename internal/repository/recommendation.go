package repository

import (
	"context"
	"time"

	"github.com/00xu00/blog/internal/models"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// engagementScoreSQL mirrors models.Post.EngagementScore.
const engagementScoreSQL = "(0.4 * views_count + 0.3 * likes_count + 0.3 * favorites_count)"

// RecommendationRepository reads candidate posts for the recommender.
type RecommendationRepository interface {
	Trending(ctx context.Context, since time.Time, limit int) ([]*models.Post, error)
	Candidates(ctx context.Context, exclude []uint, limit int) ([]*models.Post, error)
}

type recommendationRepository struct {
	db *gorm.DB
}

// NewRecommendationRepository creates a new RecommendationRepository
func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

// Trending returns published posts created at or after since, most viewed
// first.
func (r *recommendationRepository) Trending(ctx context.Context, since time.Time, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ?", models.PostStatusPublished, since).
		Order("views_count DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, attachPostAuthors(ctx, r.db, posts)
}

// candidateQuery builds the ranked candidate SELECT. Placeholders are left
// as '?' so GORM rebinds them for the active dialect.
func candidateQuery(exclude []uint, limit int) (string, []any, error) {
	q := sq.Select("*").
		From("posts").
		Where(sq.Eq{"status": string(models.PostStatusPublished)})
	if ids := uniqueIDs(exclude); len(ids) > 0 {
		q = q.Where(sq.NotEq{"id": ids})
	}
	return q.OrderBy(engagementScoreSQL+" DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
}

// Candidates returns up to limit published posts not in exclude, best
// engagement score first.
func (r *recommendationRepository) Candidates(ctx context.Context, exclude []uint, limit int) ([]*models.Post, error) {
	query, args, err := candidateQuery(exclude, limit)
	if err != nil {
		return nil, err
	}
	var posts []*models.Post
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&posts).Error; err != nil {
		return nil, err
	}
	return posts, attachPostAuthors(ctx, r.db, posts)
}
