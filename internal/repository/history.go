package repository

import (
	"context"
	"time"

	"github.com/00xu00/blog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository stores the last time each user opened each post.
type HistoryRepository interface {
	Upsert(ctx context.Context, userID, postID uint, at time.Time) error
	List(ctx context.Context, userID uint, limit, offset int) ([]*models.History, error)
	RecentPostIDs(ctx context.Context, userID uint, limit int) ([]uint, error)
	Delete(ctx context.Context, userID, postID uint) error
	Clear(ctx context.Context, userID uint) (int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Upsert inserts a (user, post) row or moves an existing row's viewed_at to at.
func (r *historyRepository) Upsert(ctx context.Context, userID, postID uint, at time.Time) error {
	row := models.History{UserID: userID, PostID: postID, ViewedAt: at}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
		}).
		Create(&row).Error
}

// List returns the user's history newest first with each post and its
// author loaded.
func (r *historyRepository) List(ctx context.Context, userID uint, limit, offset int) ([]*models.History, error) {
	var rows []*models.History
	err := r.db.WithContext(ctx).
		Preload("Post").
		Where("user_id = ?", userID).
		Order("viewed_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(rows))
	for _, h := range rows {
		if h.Post != nil {
			posts = append(posts, h.Post)
		}
	}
	return rows, attachPostAuthors(ctx, r.db, posts)
}

func (r *historyRepository) RecentPostIDs(ctx context.Context, userID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.History{}).
		Where("user_id = ?", userID).
		Order("viewed_at DESC, id DESC").
		Limit(limit).
		Pluck("post_id", &ids).Error
	return ids, err
}

func (r *historyRepository) Delete(ctx context.Context, userID, postID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.History{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("History", postID)
	}
	return nil
}

func (r *historyRepository) Clear(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.History{})
	return res.RowsAffected, res.Error
}
