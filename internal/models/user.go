// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a registered author/reader. The counters are maintained by the
// follow and post write paths.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	Avatar         string    `gorm:"type:text" json:"avatar"`
	Bio            string    `gorm:"size:500" json:"bio"`
	EmailVerified  bool      `gorm:"not null;default:false" json:"email_verified"`
	FollowingCount int       `gorm:"not null;default:0" json:"following_count"`
	FollowersCount int       `gorm:"not null;default:0" json:"followers_count"`
	ArticlesCount  int       `gorm:"not null;default:0" json:"articles_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// IsFollowing is viewer-relative and never persisted.
	IsFollowing bool `gorm:"-" json:"is_following"`
}

// UserSummary is the author projection embedded in posts, comments and messages.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Summary returns the public projection of u.
func (u *User) Summary() *UserSummary {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
