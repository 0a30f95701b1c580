package models

import "time"

// PostStatus is the publication flag of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a blog article. The four counters mirror the like, favorite,
// comment and view rows and are only changed inside the transaction that
// writes those rows.
type Post struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AuthorID       uint       `gorm:"not null;index" json:"author_id"`
	Author         *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Title          string     `gorm:"size:100;not null" json:"title"`
	Subtitle       string     `gorm:"size:200" json:"subtitle"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Summary        string     `gorm:"size:500" json:"summary"`
	Tags           []string   `gorm:"type:text;serializer:json" json:"tags"`
	Status         PostStatus `gorm:"size:16;not null;default:published;index" json:"status"`
	LikesCount     int        `gorm:"not null;default:0" json:"likes_count"`
	FavoritesCount int        `gorm:"not null;default:0" json:"favorites_count"`
	CommentsCount  int        `gorm:"not null;default:0" json:"comments_count"`
	ViewsCount     int        `gorm:"not null;default:0;index" json:"views_count"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Viewer-relative flags, computed per request.
	IsLiked     bool `gorm:"-" json:"is_liked"`
	IsFavorited bool `gorm:"-" json:"is_favorited"`

	AuthorSummary *UserSummary `gorm:"-" json:"author,omitempty"`
}

// IsPublished reports whether the post is visible to everyone.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// EngagementScore is the ranking weight used for recommendations.
func (p *Post) EngagementScore() float64 {
	return 0.4*float64(p.ViewsCount) + 0.3*float64(p.LikesCount) + 0.3*float64(p.FavoritesCount)
}

// SharesTag reports whether the post carries at least one tag in set.
func (p *Post) SharesTag(set map[string]struct{}) bool {
	for _, t := range p.Tags {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
