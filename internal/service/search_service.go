package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/repository"
)

const (
	MaxKeywordLength       = 100
	searchSnippetLength    = 200
	DefaultSearchHistory   = 10
	MaxSearchHistoryResult = 100
)

type SearchService struct {
	postRepo    repository.PostRepository
	historyRepo repository.SearchHistoryRepository
	now         func() time.Time
}

func NewSearchService(postRepo repository.PostRepository, historyRepo repository.SearchHistoryRepository) *SearchService {
	return &SearchService{postRepo: postRepo, historyRepo: historyRepo, now: time.Now}
}

func normalizeKeyword(keyword string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", models.NewValidationError("keyword is required")
	}
	if utf8.RuneCountInString(keyword) > MaxKeywordLength {
		return "", models.NewValidationError("keyword must be at most 100 characters")
	}
	return keyword, nil
}

// SearchPosts matches keyword against published posts and returns them
// with content cut to a snippet. Authenticated searches are remembered.
func (s *SearchService) SearchPosts(ctx context.Context, keyword string, limit, offset int, viewerID uint) ([]*models.Post, error) {
	keyword, err := normalizeKeyword(keyword)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.Search(ctx, keyword, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Content = snippet(p.Content, searchSnippetLength)
	}

	if viewerID != 0 {
		if err := s.historyRepo.Record(ctx, viewerID, keyword, s.now().UTC()); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to record search keyword", "error", err)
		}
	}
	return posts, nil
}

// snippet keeps the first n runes of text and marks the cut with "...".
func snippet(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

func (s *SearchService) RecordSearch(ctx context.Context, userID uint, keyword string) error {
	keyword, err := normalizeKeyword(keyword)
	if err != nil {
		return err
	}
	return s.historyRepo.Record(ctx, userID, keyword, s.now().UTC())
}

// History returns the newest remembered keywords. limit must be 1..100;
// 0 selects the default.
func (s *SearchService) History(ctx context.Context, userID uint, limit int) ([]*models.SearchHistory, error) {
	if limit == 0 {
		limit = DefaultSearchHistory
	}
	if limit < 1 || limit > MaxSearchHistoryResult {
		return nil, models.NewValidationError("limit must be between 1 and 100")
	}
	return s.historyRepo.List(ctx, userID, limit)
}

func (s *SearchService) ClearHistory(ctx context.Context, userID uint) (int64, error) {
	return s.historyRepo.Clear(ctx, userID)
}
