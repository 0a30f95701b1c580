package service

import (
	"context"
	"strings"

	"github.com/00xu00/blog/internal/featureflags"
	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/repository"
	"github.com/00xu00/blog/internal/validation"
)

// Enricher schedules background tag and summary suggestions for a post.
type Enricher interface {
	Enqueue(postID uint) bool
}

type PostService struct {
	postRepo       repository.PostRepository
	engagementRepo repository.EngagementRepository
	enricher       Enricher
	flags          *featureflags.Set
}

type CreatePostInput struct {
	AuthorID uint
	Title    string            `json:"title" validate:"required,max=100"`
	Subtitle string            `json:"subtitle" validate:"max=200"`
	Content  string            `json:"content" validate:"required"`
	Tags     []string          `json:"tags" validate:"max=10,dive,max=30"`
	Status   models.PostStatus `json:"status" validate:"omitempty,oneof=draft published"`
}

// UpdatePostInput carries a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Title    *string            `json:"title" validate:"omitempty,min=1,max=100"`
	Subtitle *string            `json:"subtitle" validate:"omitempty,max=200"`
	Content  *string            `json:"content" validate:"omitempty,min=1"`
	Tags     *[]string          `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	Status   *models.PostStatus `json:"status" validate:"omitempty,oneof=draft published"`
}

func NewPostService(
	postRepo repository.PostRepository,
	engagementRepo repository.EngagementRepository,
	enricher Enricher,
	flags *featureflags.Set,
) *PostService {
	return &PostService{
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
		enricher:       enricher,
		flags:          flags,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Subtitle = strings.TrimSpace(in.Subtitle)
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}
	if verr := validation.Struct(in); verr != nil {
		return nil, verr
	}
	status := in.Status
	if status == "" {
		status = models.PostStatusPublished
	}

	post := &models.Post{
		AuthorID: in.AuthorID,
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Content:  in.Content,
		Tags:     models.NormalizeTags(in.Tags),
		Status:   status,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if post.IsPublished() {
		s.maybeEnrich(ctx, post)
	}
	return post, nil
}

func (s *PostService) maybeEnrich(ctx context.Context, post *models.Post) {
	if s.enricher == nil || !s.flags.Enabled(featureflags.AIEnrichment, post.AuthorID) {
		return
	}
	if s.enricher.Enqueue(post.ID) {
		middleware.Logger.DebugContext(ctx, "enrichment queued", "post_id", post.ID)
	}
}

// GetPost returns a published post, or a draft when the viewer wrote it.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() && post.AuthorID != viewerID {
		return nil, models.NewNotFoundError("Post", id)
	}
	if err := annotatePosts(ctx, s.engagementRepo, viewerID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int, viewerID uint) ([]*models.Post, error) {
	return s.annotated(ctx, viewerID)(s.postRepo.ListPublished(ctx, limit, offset))
}

// ListByAuthor lists an author's posts; drafts are only included when the
// viewer is the author.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	includeDrafts := viewerID != 0 && viewerID == authorID
	return s.annotated(ctx, viewerID)(s.postRepo.ListByAuthor(ctx, authorID, includeDrafts, limit, offset))
}

func (s *PostService) ListLiked(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.annotated(ctx, userID)(s.postRepo.ListLikedBy(ctx, userID, limit, offset))
}

func (s *PostService) ListFavorited(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.annotated(ctx, userID)(s.postRepo.ListFavoritedBy(ctx, userID, limit, offset))
}

func (s *PostService) Latest(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.postRepo.Latest(ctx, limit)
}

func (s *PostService) annotated(ctx context.Context, viewerID uint) func([]*models.Post, error) ([]*models.Post, error) {
	return func(posts []*models.Post, err error) ([]*models.Post, error) {
		if err != nil {
			return nil, err
		}
		if err := annotatePosts(ctx, s.engagementRepo, viewerID, posts); err != nil {
			return nil, err
		}
		return posts, nil
	}
}

// UpdatePost applies the non-nil fields. Posts the caller does not own are
// reported as missing.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if verr := validation.Struct(in); verr != nil {
		return nil, verr
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.UserID {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}
	wasPublished := post.IsPublished()

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("title is required")
		}
		post.Title = title
	}
	if in.Subtitle != nil {
		post.Subtitle = strings.TrimSpace(*in.Subtitle)
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, models.NewValidationError("content is required")
		}
		post.Content = *in.Content
	}
	if in.Tags != nil {
		post.Tags = models.NormalizeTags(*in.Tags)
	}
	if in.Status != nil {
		post.Status = *in.Status
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	if !wasPublished && post.IsPublished() {
		s.maybeEnrich(ctx, post)
	}
	if err := annotatePosts(ctx, s.engagementRepo, in.UserID, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	return s.postRepo.Delete(ctx, postID, userID)
}
