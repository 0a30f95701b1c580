package models

import "time"

// History records the most recent time a user opened a post. There is at
// most one row per (user, post); revisits move ViewedAt forward.
type History struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_history_user_post" json:"user_id"`
	PostID   uint      `gorm:"not null;uniqueIndex:idx_history_user_post;index" json:"post_id"`
	ViewedAt time.Time `gorm:"not null;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
}

// SearchHistory is one remembered keyword; searching again refreshes SearchedAt.
type SearchHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_search_user_keyword" json:"user_id"`
	Keyword    string    `gorm:"size:100;not null;uniqueIndex:idx_search_user_keyword" json:"keyword"`
	SearchedAt time.Time `gorm:"not null;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// SearchHistoryLimit is how many keywords are kept per user.
const SearchHistoryLimit = 100
