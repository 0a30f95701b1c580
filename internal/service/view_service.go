package service

import (
	"context"
	"time"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/repository"
	"github.com/00xu00/blog/internal/viewtrack"
)

// ViewService counts post detail views and keeps each reader's browsing
// history.
type ViewService struct {
	postRepo       repository.PostRepository
	historyRepo    repository.HistoryRepository
	engagementRepo repository.EngagementRepository
	window         *viewtrack.Window
	now            func() time.Time
}

func NewViewService(
	postRepo repository.PostRepository,
	historyRepo repository.HistoryRepository,
	engagementRepo repository.EngagementRepository,
	window *viewtrack.Window,
) *ViewService {
	return &ViewService{
		postRepo:       postRepo,
		historyRepo:    historyRepo,
		engagementRepo: engagementRepo,
		window:         window,
		now:            time.Now,
	}
}

// RecordView applies the side effects of one detail view. The counter
// moves by one unless the same client saw the post inside the dedup
// window; authenticated viewers always get their history refreshed.
// post.ViewsCount is updated in place when the view is counted.
func (s *ViewService) RecordView(ctx context.Context, post *models.Post, clientAddr string, viewerID uint) error {
	key := viewtrack.Key(clientAddr, post.ID)
	if s.window.Observe(key) {
		if err := s.postRepo.IncrementViews(ctx, post.ID); err != nil {
			s.window.Forget(key)
			return err
		}
		post.ViewsCount++
	}
	if viewerID == 0 {
		return nil
	}
	return s.historyRepo.Upsert(ctx, viewerID, post.ID, s.now().UTC())
}

// TrackView is RecordView for handlers that must not fail a read because
// of a counting error.
func (s *ViewService) TrackView(ctx context.Context, post *models.Post, clientAddr string, viewerID uint) {
	if err := s.RecordView(ctx, post, clientAddr, viewerID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to record post view",
			"post_id", post.ID, "error", err)
	}
}

// ListHistory returns viewed posts, most recent first, flagged for the
// viewer.
func (s *ViewService) ListHistory(ctx context.Context, userID uint, limit, offset int) ([]*models.History, error) {
	entries, err := s.historyRepo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(entries))
	for _, h := range entries {
		if h.Post != nil {
			posts = append(posts, h.Post)
		}
	}
	if err := annotatePosts(ctx, s.engagementRepo, userID, posts); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *ViewService) DeleteHistory(ctx context.Context, userID, postID uint) error {
	return s.historyRepo.Delete(ctx, userID, postID)
}

func (s *ViewService) ClearHistory(ctx context.Context, userID uint) (int64, error) {
	return s.historyRepo.Clear(ctx, userID)
}
