package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn            func(context.Context, *models.User) error
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	getByIDsFn          func(context.Context, []uint) ([]*models.User, error)
	updateFn            func(context.Context, *models.User) error
	markEmailVerifiedFn func(context.Context, uint) error
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error { return s.updateFn(ctx, u) }
func (s *userRepoStub) MarkEmailVerified(ctx context.Context, id uint) error {
	return s.markEmailVerifiedFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:            func(context.Context, *models.User) error { return nil },
		getByIDFn:           func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:        func(_ context.Context, e string) (*models.User, error) { return nil, models.NewNotFoundError("User", e) },
		getByUsernameFn:     func(_ context.Context, u string) (*models.User, error) { return nil, models.NewNotFoundError("User", u) },
		getByIDsFn:          func(context.Context, []uint) ([]*models.User, error) { return nil, nil },
		updateFn:            func(context.Context, *models.User) error { return nil },
		markEmailVerifiedFn: func(context.Context, uint) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	getByIDsFn        func(context.Context, []uint) ([]*models.Post, error)
	listPublishedFn   func(context.Context, int, int) ([]*models.Post, error)
	listByAuthorFn    func(context.Context, uint, bool, int, int) ([]*models.Post, error)
	listLikedByFn     func(context.Context, uint, int, int) ([]*models.Post, error)
	listFavoritedFn   func(context.Context, uint, int, int) ([]*models.Post, error)
	latestFn          func(context.Context, int) ([]*models.Post, error)
	searchFn          func(context.Context, string, int, int) ([]*models.Post, error)
	updateFn          func(context.Context, *models.Post) error
	deleteFn          func(context.Context, uint, uint) error
	incrementViewsFn  func(context.Context, uint) error
	applyEnrichmentFn func(context.Context, uint, []string, string) error
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error { return s.createFn(ctx, p) }
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *postRepoStub) ListPublished(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listPublishedFn(ctx, limit, offset)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint, drafts bool, limit, offset int) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, drafts, limit, offset)
}
func (s *postRepoStub) ListLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listLikedByFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) ListFavoritedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listFavoritedFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) Latest(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.latestFn(ctx, limit)
}
func (s *postRepoStub) Search(ctx context.Context, keyword string, limit, offset int) ([]*models.Post, error) {
	return s.searchFn(ctx, keyword, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, p *models.Post) error { return s.updateFn(ctx, p) }
func (s *postRepoStub) Delete(ctx context.Context, id, authorID uint) error {
	return s.deleteFn(ctx, id, authorID)
}
func (s *postRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *postRepoStub) ApplyEnrichment(ctx context.Context, id uint, tags []string, summary string) error {
	return s.applyEnrichmentFn(ctx, id, tags, summary)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Status: models.PostStatusPublished}, nil
		},
		getByIDsFn:        func(context.Context, []uint) ([]*models.Post, error) { return nil, nil },
		listPublishedFn:   func(context.Context, int, int) ([]*models.Post, error) { return nil, nil },
		listByAuthorFn:    func(context.Context, uint, bool, int, int) ([]*models.Post, error) { return nil, nil },
		listLikedByFn:     func(context.Context, uint, int, int) ([]*models.Post, error) { return nil, nil },
		listFavoritedFn:   func(context.Context, uint, int, int) ([]*models.Post, error) { return nil, nil },
		latestFn:          func(context.Context, int) ([]*models.Post, error) { return nil, nil },
		searchFn:          func(context.Context, string, int, int) ([]*models.Post, error) { return nil, nil },
		updateFn:          func(context.Context, *models.Post) error { return nil },
		deleteFn:          func(context.Context, uint, uint) error { return nil },
		incrementViewsFn:  func(context.Context, uint) error { return nil },
		applyEnrichmentFn: func(context.Context, uint, []string, string) error { return nil },
	}
}

// engagementRepoStub is a stub for repository.EngagementRepository.
type engagementRepoStub struct {
	likeFn          func(context.Context, uint, uint) error
	unlikeFn        func(context.Context, uint, uint) error
	favoriteFn      func(context.Context, uint, uint) error
	unfavoriteFn    func(context.Context, uint, uint) error
	likeCommentFn   func(context.Context, uint, uint) error
	unlikeCommentFn func(context.Context, uint, uint) error
	likedPostsFn    func(context.Context, uint, []uint) ([]uint, error)
	favoritedFn     func(context.Context, uint, []uint) ([]uint, error)
	likedCommentsFn func(context.Context, uint, []uint) ([]uint, error)
	recentLikedFn   func(context.Context, uint, int) ([]uint, error)
	recentFavFn     func(context.Context, uint, int) ([]uint, error)
}

func (s *engagementRepoStub) Like(ctx context.Context, u, p uint) error   { return s.likeFn(ctx, u, p) }
func (s *engagementRepoStub) Unlike(ctx context.Context, u, p uint) error { return s.unlikeFn(ctx, u, p) }
func (s *engagementRepoStub) Favorite(ctx context.Context, u, p uint) error {
	return s.favoriteFn(ctx, u, p)
}
func (s *engagementRepoStub) Unfavorite(ctx context.Context, u, p uint) error {
	return s.unfavoriteFn(ctx, u, p)
}
func (s *engagementRepoStub) LikeComment(ctx context.Context, u, c uint) error {
	return s.likeCommentFn(ctx, u, c)
}
func (s *engagementRepoStub) UnlikeComment(ctx context.Context, u, c uint) error {
	return s.unlikeCommentFn(ctx, u, c)
}
func (s *engagementRepoStub) LikedPostIDs(ctx context.Context, u uint, ids []uint) ([]uint, error) {
	return s.likedPostsFn(ctx, u, ids)
}
func (s *engagementRepoStub) FavoritedPostIDs(ctx context.Context, u uint, ids []uint) ([]uint, error) {
	return s.favoritedFn(ctx, u, ids)
}
func (s *engagementRepoStub) LikedCommentIDs(ctx context.Context, u uint, ids []uint) ([]uint, error) {
	return s.likedCommentsFn(ctx, u, ids)
}
func (s *engagementRepoStub) RecentLikedPostIDs(ctx context.Context, u uint, limit int) ([]uint, error) {
	return s.recentLikedFn(ctx, u, limit)
}
func (s *engagementRepoStub) RecentFavoritedPostIDs(ctx context.Context, u uint, limit int) ([]uint, error) {
	return s.recentFavFn(ctx, u, limit)
}

func noopEngagementRepo() *engagementRepoStub {
	none := func(context.Context, uint, []uint) ([]uint, error) { return nil, nil }
	recent := func(context.Context, uint, int) ([]uint, error) { return nil, nil }
	ok := func(context.Context, uint, uint) error { return nil }
	return &engagementRepoStub{
		likeFn: ok, unlikeFn: ok, favoriteFn: ok, unfavoriteFn: ok,
		likeCommentFn: ok, unlikeCommentFn: ok,
		likedPostsFn: none, favoritedFn: none, likedCommentsFn: none,
		recentLikedFn: recent, recentFavFn: recent,
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn          func(context.Context, *models.Comment) error
	getByIDFn         func(context.Context, uint) (*models.Comment, error)
	listTopLevelFn    func(context.Context, uint, int, int) ([]*models.Comment, error)
	listDescendantsFn func(context.Context, []uint) ([]*models.Comment, error)
	updateContentFn   func(context.Context, uint, uint, string) (*models.Comment, error)
	deleteSubtreeFn   func(context.Context, uint, uint) (int, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.listTopLevelFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) ListDescendants(ctx context.Context, rootIDs []uint) ([]*models.Comment, error) {
	return s.listDescendantsFn(ctx, rootIDs)
}
func (s *commentRepoStub) UpdateContent(ctx context.Context, id, userID uint, content string) (*models.Comment, error) {
	return s.updateContentFn(ctx, id, userID, content)
}
func (s *commentRepoStub) DeleteSubtree(ctx context.Context, id, userID uint) (int, error) {
	return s.deleteSubtreeFn(ctx, id, userID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:          func(context.Context, *models.Comment) error { return nil },
		getByIDFn:         func(_ context.Context, id uint) (*models.Comment, error) { return nil, models.NewNotFoundError("Comment", id) },
		listTopLevelFn:    func(context.Context, uint, int, int) ([]*models.Comment, error) { return nil, nil },
		listDescendantsFn: func(context.Context, []uint) ([]*models.Comment, error) { return nil, nil },
		updateContentFn: func(_ context.Context, id, userID uint, content string) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: userID, Content: content}, nil
		},
		deleteSubtreeFn: func(context.Context, uint, uint) (int, error) { return 1, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	followFn        func(context.Context, uint, uint) error
	unfollowFn      func(context.Context, uint, uint) error
	isFollowingFn   func(context.Context, uint, uint) (bool, error)
	listFollowersFn func(context.Context, uint, int, int) ([]*models.User, error)
	listFollowingFn func(context.Context, uint, int, int) ([]*models.User, error)
}

func (s *followRepoStub) Follow(ctx context.Context, a, b uint) error   { return s.followFn(ctx, a, b) }
func (s *followRepoStub) Unfollow(ctx context.Context, a, b uint) error { return s.unfollowFn(ctx, a, b) }
func (s *followRepoStub) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.isFollowingFn(ctx, a, b)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, id uint, limit, offset int) ([]*models.User, error) {
	return s.listFollowersFn(ctx, id, limit, offset)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, id uint, limit, offset int) ([]*models.User, error) {
	return s.listFollowingFn(ctx, id, limit, offset)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:        func(context.Context, uint, uint) error { return nil },
		unfollowFn:      func(context.Context, uint, uint) error { return nil },
		isFollowingFn:   func(context.Context, uint, uint) (bool, error) { return false, nil },
		listFollowersFn: func(context.Context, uint, int, int) ([]*models.User, error) { return nil, nil },
		listFollowingFn: func(context.Context, uint, int, int) ([]*models.User, error) { return nil, nil },
	}
}

// historyRepoStub is a stub for repository.HistoryRepository.
type historyRepoStub struct {
	upsertFn        func(context.Context, uint, uint, time.Time) error
	listFn          func(context.Context, uint, int, int) ([]*models.History, error)
	recentPostIDsFn func(context.Context, uint, int) ([]uint, error)
	deleteFn        func(context.Context, uint, uint) error
	clearFn         func(context.Context, uint) (int64, error)
}

func (s *historyRepoStub) Upsert(ctx context.Context, u, p uint, at time.Time) error {
	return s.upsertFn(ctx, u, p, at)
}
func (s *historyRepoStub) List(ctx context.Context, u uint, limit, offset int) ([]*models.History, error) {
	return s.listFn(ctx, u, limit, offset)
}
func (s *historyRepoStub) RecentPostIDs(ctx context.Context, u uint, limit int) ([]uint, error) {
	return s.recentPostIDsFn(ctx, u, limit)
}
func (s *historyRepoStub) Delete(ctx context.Context, u, p uint) error { return s.deleteFn(ctx, u, p) }
func (s *historyRepoStub) Clear(ctx context.Context, u uint) (int64, error) {
	return s.clearFn(ctx, u)
}

func noopHistoryRepo() *historyRepoStub {
	return &historyRepoStub{
		upsertFn:        func(context.Context, uint, uint, time.Time) error { return nil },
		listFn:          func(context.Context, uint, int, int) ([]*models.History, error) { return nil, nil },
		recentPostIDsFn: func(context.Context, uint, int) ([]uint, error) { return nil, nil },
		deleteFn:        func(context.Context, uint, uint) error { return nil },
		clearFn:         func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

// searchHistoryRepoStub is a stub for repository.SearchHistoryRepository.
type searchHistoryRepoStub struct {
	recordFn func(context.Context, uint, string, time.Time) error
	listFn   func(context.Context, uint, int) ([]*models.SearchHistory, error)
	clearFn  func(context.Context, uint) (int64, error)
}

func (s *searchHistoryRepoStub) Record(ctx context.Context, u uint, k string, at time.Time) error {
	return s.recordFn(ctx, u, k, at)
}
func (s *searchHistoryRepoStub) List(ctx context.Context, u uint, limit int) ([]*models.SearchHistory, error) {
	return s.listFn(ctx, u, limit)
}
func (s *searchHistoryRepoStub) Clear(ctx context.Context, u uint) (int64, error) {
	return s.clearFn(ctx, u)
}

func noopSearchHistoryRepo() *searchHistoryRepoStub {
	return &searchHistoryRepoStub{
		recordFn: func(context.Context, uint, string, time.Time) error { return nil },
		listFn:   func(context.Context, uint, int) ([]*models.SearchHistory, error) { return nil, nil },
		clearFn:  func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	createFn       func(context.Context, *models.Message) error
	listForUserFn  func(context.Context, uint, int, int) ([]*models.Message, error)
	conversationFn func(context.Context, uint, uint, int, int) ([]*models.Message, error)
	markReadFn     func(context.Context, uint, uint) (*models.Message, error)
	unreadCountFn  func(context.Context, uint) (int64, error)
}

func (s *messageRepoStub) Create(ctx context.Context, m *models.Message) error {
	return s.createFn(ctx, m)
}
func (s *messageRepoStub) ListForUser(ctx context.Context, u uint, limit, offset int) ([]*models.Message, error) {
	return s.listForUserFn(ctx, u, limit, offset)
}
func (s *messageRepoStub) Conversation(ctx context.Context, u, o uint, limit, offset int) ([]*models.Message, error) {
	return s.conversationFn(ctx, u, o, limit, offset)
}
func (s *messageRepoStub) MarkRead(ctx context.Context, id, receiverID uint) (*models.Message, error) {
	return s.markReadFn(ctx, id, receiverID)
}
func (s *messageRepoStub) UnreadCount(ctx context.Context, u uint) (int64, error) {
	return s.unreadCountFn(ctx, u)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn:       func(_ context.Context, m *models.Message) error { m.ID = 1; return nil },
		listForUserFn:  func(context.Context, uint, int, int) ([]*models.Message, error) { return nil, nil },
		conversationFn: func(context.Context, uint, uint, int, int) ([]*models.Message, error) { return nil, nil },
		markReadFn: func(_ context.Context, id, receiverID uint) (*models.Message, error) {
			return &models.Message{ID: id, ReceiverID: receiverID, IsRead: true}, nil
		},
		unreadCountFn: func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

// recRepoStub is a stub for repository.RecommendationRepository.
type recRepoStub struct {
	trendingFn   func(context.Context, time.Time, int) ([]*models.Post, error)
	candidatesFn func(context.Context, []uint, int) ([]*models.Post, error)
}

func (s *recRepoStub) Trending(ctx context.Context, since time.Time, limit int) ([]*models.Post, error) {
	return s.trendingFn(ctx, since, limit)
}
func (s *recRepoStub) Candidates(ctx context.Context, exclude []uint, limit int) ([]*models.Post, error) {
	return s.candidatesFn(ctx, exclude, limit)
}

func noopRecRepo() *recRepoStub {
	return &recRepoStub{
		trendingFn:   func(context.Context, time.Time, int) ([]*models.Post, error) { return nil, nil },
		candidatesFn: func(context.Context, []uint, int) ([]*models.Post, error) { return nil, nil },
	}
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

type publishedEvent struct {
	userID uint
	event  notifications.Event
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uint, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID, event})
	return p.err
}

func (p *recordingPublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

// assertAppError asserts that err is an AppError carrying code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
