package repository

import (
	"context"
	"time"

	"github.com/00xu00/blog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchHistoryRepository keeps each user's most recent search keywords.
type SearchHistoryRepository interface {
	Record(ctx context.Context, userID uint, keyword string, at time.Time) error
	List(ctx context.Context, userID uint, limit int) ([]*models.SearchHistory, error)
	Clear(ctx context.Context, userID uint) (int64, error)
}

type searchHistoryRepository struct {
	db *gorm.DB
}

// NewSearchHistoryRepository creates a new SearchHistoryRepository
func NewSearchHistoryRepository(db *gorm.DB) SearchHistoryRepository {
	return &searchHistoryRepository{db: db}
}

// Record upserts the keyword and trims the user's list to
// models.SearchHistoryLimit entries, dropping the oldest.
func (r *searchHistoryRepository) Record(ctx context.Context, userID uint, keyword string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.SearchHistory{UserID: userID, Keyword: keyword, SearchedAt: at}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "keyword"}},
			DoUpdates: clause.AssignmentColumns([]string{"searched_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}

		var stale []uint
		if err := tx.Model(&models.SearchHistory{}).
			Where("user_id = ?", userID).
			Order("searched_at DESC, id DESC").
			Offset(models.SearchHistoryLimit).
			Limit(1000).
			Pluck("id", &stale).Error; err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		return tx.Where("id IN ?", stale).Delete(&models.SearchHistory{}).Error
	})
}

func (r *searchHistoryRepository) List(ctx context.Context, userID uint, limit int) ([]*models.SearchHistory, error) {
	var rows []*models.SearchHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("searched_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *searchHistoryRepository) Clear(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.SearchHistory{})
	return res.RowsAffected, res.Error
}
