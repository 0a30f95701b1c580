package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/00xu00/blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchPosts_TruncatesAndRecords(t *testing.T) {
	t.Parallel()
	posts := noopPostRepo()
	posts.searchFn = func(_ context.Context, keyword string, _, _ int) ([]*models.Post, error) {
		assert.Equal(t, "golang", keyword)
		return []*models.Post{
			{ID: 1, Content: strings.Repeat("é", 250)},
			{ID: 2, Content: "short"},
		}, nil
	}
	history := noopSearchHistoryRepo()
	var recorded []string
	history.recordFn = func(_ context.Context, userID uint, keyword string, _ time.Time) error {
		assert.Equal(t, uint(4), userID)
		recorded = append(recorded, keyword)
		return nil
	}
	svc := NewSearchService(posts, history)

	got, err := svc.SearchPosts(context.Background(), "  golang ", 10, 0, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, strings.Repeat("é", 200)+"...", got[0].Content)
	assert.Equal(t, "short", got[1].Content)
	assert.Equal(t, []string{"golang"}, recorded)

	_, err = svc.SearchPosts(context.Background(), "golang", 10, 0, 0)
	require.NoError(t, err)
	assert.Len(t, recorded, 1, "anonymous searches are not remembered")
}

func TestSearchPosts_KeywordValidation(t *testing.T) {
	t.Parallel()
	svc := NewSearchService(noopPostRepo(), noopSearchHistoryRepo())

	_, err := svc.SearchPosts(context.Background(), "   ", 10, 0, 0)
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.SearchPosts(context.Background(), strings.Repeat("k", 101), 10, 0, 0)
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.SearchPosts(context.Background(), strings.Repeat("k", 100), 10, 0, 0)
	assert.NoError(t, err)
}

func TestSearchPosts_RecordFailureDoesNotFailSearch(t *testing.T) {
	t.Parallel()
	history := noopSearchHistoryRepo()
	history.recordFn = func(context.Context, uint, string, time.Time) error { return assert.AnError }
	svc := NewSearchService(noopPostRepo(), history)

	_, err := svc.SearchPosts(context.Background(), "go", 10, 0, 1)
	assert.NoError(t, err)
}

func TestSearchHistory_Limit(t *testing.T) {
	t.Parallel()
	history := noopSearchHistoryRepo()
	var limits []int
	history.listFn = func(_ context.Context, _ uint, limit int) ([]*models.SearchHistory, error) {
		limits = append(limits, limit)
		return nil, nil
	}
	svc := NewSearchService(noopPostRepo(), history)
	ctx := context.Background()

	_, err := svc.History(ctx, 1, 0)
	require.NoError(t, err)
	_, err = svc.History(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 100}, limits)

	_, err = svc.History(ctx, 1, 101)
	assertAppError(t, err, models.CodeValidation)
	_, err = svc.History(ctx, 1, -1)
	assertAppError(t, err, models.CodeValidation)
}

func TestRecordSearch_Validates(t *testing.T) {
	t.Parallel()
	svc := NewSearchService(noopPostRepo(), noopSearchHistoryRepo())
	assertAppError(t, svc.RecordSearch(context.Background(), 1, ""), models.CodeValidation)
	assert.NoError(t, svc.RecordSearch(context.Background(), 1, "go"))
}
