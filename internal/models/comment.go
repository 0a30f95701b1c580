package models

import "time"

// Comment is a reply to a post or, when ParentID is set, to another comment.
// Threads are stored flat; Replies is filled when a tree is assembled.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"not null;index" json:"post_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ParentID   *uint     `gorm:"index" json:"parent_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	LikesCount int       `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`

	IsLiked       bool         `gorm:"-" json:"is_liked"`
	Replies       []*Comment   `gorm:"-" json:"replies"`
	AuthorSummary *UserSummary `gorm:"-" json:"author,omitempty"`
}
