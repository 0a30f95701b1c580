package database

import "github.com/00xu00/blog/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Favorite{},
		&models.CommentLike{},
		&models.Follow{},
		&models.History{},
		&models.SearchHistory{},
		&models.Message{},
	}
}
