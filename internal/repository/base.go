// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"github.com/00xu00/blog/internal/models"

	"gorm.io/gorm"
)

// clampedDecrement is an expression that lowers column by n without going
// below zero. It avoids GREATEST, which sqlite lacks.
func clampedDecrement(column string, n int) any {
	return gorm.Expr("CASE WHEN "+column+" >= ? THEN "+column+" - ? ELSE 0 END", n, n)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func loadSummaries(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]*models.UserSummary, error) {
	ids = uniqueIDs(ids)
	out := make(map[uint]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := db.WithContext(ctx).
		Select("id", "username", "avatar").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

// attachPostAuthors fills AuthorSummary on every post with one query.
func attachPostAuthors(ctx context.Context, db *gorm.DB, posts []*models.Post) error {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	byID, err := loadSummaries(ctx, db, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.AuthorSummary = byID[p.AuthorID]
	}
	return nil
}

func attachCommentAuthors(ctx context.Context, db *gorm.DB, comments []*models.Comment) error {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	byID, err := loadSummaries(ctx, db, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.AuthorSummary = byID[c.UserID]
	}
	return nil
}
