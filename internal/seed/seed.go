// Package seed fills a database with demo data for development and load
// testing. Everything is written through the repositories so counters stay
// consistent with the rows they summarise.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every generated account gets.
const DefaultPassword = "Inkwell-Demo-2024"

var topics = []string{
	"go", "rust", "databases", "distributed-systems", "frontend", "devops",
	"testing", "security", "career", "design", "performance", "cloud",
}

// Options sizes a generated dataset.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	FollowsPerUser  int
	LikesPerUser    int
	MessagesPerUser int
	// DraftRatio is the share of posts left unpublished, 0..1.
	DraftRatio float64
	// RandSeed makes runs reproducible when non-zero.
	RandSeed int64
	// FastHash uses bcrypt.MinCost, which is fine for throwaway data.
	FastHash bool
}

// DefaultOptions is a small but well connected dataset.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		PostsPerUser:    5,
		CommentsPerPost: 3,
		FollowsPerUser:  5,
		LikesPerUser:    10,
		MessagesPerUser: 2,
		DraftRatio:      0.1,
		FastHash:        true,
	}
}

// Result counts what a run created.
type Result struct {
	Users     []*models.User
	Posts     []*models.Post
	Comments  int
	Follows   int
	Likes     int
	Favorites int
	Messages  int
}

// Seeder writes generated data through the repository layer.
type Seeder struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
	engage   repository.EngagementRepository
	messages repository.MessageRepository
	hashCost int
	seq      int
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	return &Seeder{
		db:       db,
		faker:    gofakeit.New(opts.RandSeed),
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewFollowRepository(db),
		engage:   repository.NewEngagementRepository(db),
		messages: repository.NewMessageRepository(db),
		hashCost: cost,
	}
}

// ClearAll removes every row the application owns, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{
		&models.CommentLike{}, &models.Like{}, &models.Favorite{},
		&models.History{}, &models.SearchHistory{}, &models.Message{},
		&models.Follow{}, &models.Comment{}, &models.Post{}, &models.User{},
	}
	for _, t := range tables {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	middleware.Logger.InfoContext(ctx, "seed: cleared existing data")
	return nil
}

// Run generates a dataset sized by opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}

	for i := 0; i < opts.Users; i++ {
		u, err := s.CreateUser(ctx, "", "")
		if err != nil {
			return res, fmt.Errorf("create user: %w", err)
		}
		res.Users = append(res.Users, u)
	}
	if len(res.Users) == 0 {
		return res, nil
	}

	for _, u := range res.Users {
		for j := 0; j < opts.PostsPerUser; j++ {
			status := models.PostStatusPublished
			if s.faker.Float64Range(0, 1) < opts.DraftRatio {
				status = models.PostStatusDraft
			}
			p, err := s.CreatePost(ctx, u.ID, s.fakePost(status))
			if err != nil {
				return res, fmt.Errorf("create post: %w", err)
			}
			res.Posts = append(res.Posts, p)
		}
	}

	published := make([]*models.Post, 0, len(res.Posts))
	for _, p := range res.Posts {
		if p.IsPublished() {
			published = append(published, p)
		}
	}

	for _, u := range res.Users {
		for _, other := range s.pickUsers(res.Users, u.ID, opts.FollowsPerUser) {
			if ok, err := tolerateConflict(s.follows.Follow(ctx, u.ID, other.ID)); err != nil {
				return res, fmt.Errorf("follow: %w", err)
			} else if ok {
				res.Follows++
			}
		}
		for _, p := range s.pickPosts(published, opts.LikesPerUser) {
			if ok, err := tolerateConflict(s.engage.Like(ctx, u.ID, p.ID)); err != nil {
				return res, fmt.Errorf("like: %w", err)
			} else if ok {
				res.Likes++
			}
			if s.faker.Bool() {
				if ok, err := tolerateConflict(s.engage.Favorite(ctx, u.ID, p.ID)); err != nil {
					return res, fmt.Errorf("favorite: %w", err)
				} else if ok {
					res.Favorites++
				}
			}
		}
		for _, other := range s.pickUsers(res.Users, u.ID, opts.MessagesPerUser) {
			msg := &models.Message{SenderID: u.ID, ReceiverID: other.ID, Content: s.faker.Sentence(12)}
			if err := s.messages.Create(ctx, msg); err != nil {
				return res, fmt.Errorf("message: %w", err)
			}
			res.Messages++
		}
	}

	for _, p := range published {
		n, err := s.commentThread(ctx, p.ID, res.Users, opts.CommentsPerPost)
		if err != nil {
			return res, fmt.Errorf("comments: %w", err)
		}
		res.Comments += n
	}

	middleware.Logger.InfoContext(ctx, "seed: dataset created",
		"users", len(res.Users), "posts", len(res.Posts), "comments", res.Comments,
		"follows", res.Follows, "likes", res.Likes, "messages", res.Messages)
	return res, nil
}

// CreateUser persists an account. Empty fields are generated.
func (s *Seeder) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	if username == "" {
		username = s.fakeUsername()
	}
	if email == "" {
		email = strings.ToLower(username) + "@" + s.faker.DomainName()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.hashCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username: username,
		Email:    strings.ToLower(email),
		Password: string(hash),
		Bio:      s.faker.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreatePost persists p for authorID, bumping the author's article count.
func (s *Seeder) CreatePost(ctx context.Context, authorID uint, p *models.Post) (*models.Post, error) {
	p.AuthorID = authorID
	p.Tags = models.NormalizeTags(p.Tags)
	if p.Status == "" {
		p.Status = models.PostStatusPublished
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Seeder) fakePost(status models.PostStatus) *models.Post {
	title := s.faker.HipsterSentence(5)
	if len(title) > 100 {
		title = title[:100]
	}
	return &models.Post{
		Title:    strings.TrimSuffix(title, "."),
		Subtitle: s.faker.Sentence(8),
		Content:  s.faker.Paragraph(3, 4, 12, "\n\n"),
		Tags:     s.pickTopics(1 + s.faker.Number(0, 2)),
		Status:   status,
	}
}

// commentThread adds n comments to a post, each replying to a random earlier
// one about a third of the time.
func (s *Seeder) commentThread(ctx context.Context, postID uint, users []*models.User, n int) (int, error) {
	var created []*models.Comment
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		c := &models.Comment{PostID: postID, UserID: author.ID, Content: s.faker.Sentence(10)}
		if len(created) > 0 && s.faker.Number(0, 2) == 0 {
			parent := created[s.faker.Number(0, len(created)-1)]
			c.ParentID = &parent.ID
		}
		if err := s.comments.Create(ctx, c); err != nil {
			return len(created), err
		}
		created = append(created, c)
	}
	return len(created), nil
}

func (s *Seeder) fakeUsername() string {
	s.seq++
	name := fmt.Sprintf("%s_%d%s", strings.ToLower(s.faker.FirstName()), s.seq, s.faker.DigitN(3))
	if len(name) > 30 {
		name = name[len(name)-30:]
	}
	return name
}

func (s *Seeder) pickTopics(n int) []string {
	out := make([]string, 0, n)
	for _, i := range s.faker.Rand.Perm(len(topics))[:min(n, len(topics))] {
		out = append(out, topics[i])
	}
	return out
}

func (s *Seeder) pickUsers(users []*models.User, exclude uint, n int) []*models.User {
	out := make([]*models.User, 0, n)
	for _, i := range s.faker.Rand.Perm(len(users)) {
		if len(out) == n {
			break
		}
		if users[i].ID != exclude {
			out = append(out, users[i])
		}
	}
	return out
}

func (s *Seeder) pickPosts(posts []*models.Post, n int) []*models.Post {
	out := make([]*models.Post, 0, n)
	for _, i := range s.faker.Rand.Perm(len(posts)) {
		if len(out) == n {
			break
		}
		out = append(out, posts[i])
	}
	return out
}

// tolerateConflict treats a duplicate edge as a skipped insert.
func tolerateConflict(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
		return false, nil
	}
	return false, err
}
