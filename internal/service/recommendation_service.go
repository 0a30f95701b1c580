package service

import (
	"context"
	"sort"
	"time"

	"github.com/00xu00/blog/internal/featureflags"
	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/observability"
	"github.com/00xu00/blog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultRecommendationLimit = 10
	MaxRecommendationLimit     = 50

	trendingWindow    = 7 * 24 * time.Hour
	interactionSample = 10
	tagMatchedQuota   = 5
	minCandidatePool  = 200
)

type RecommendationService struct {
	recRepo        repository.RecommendationRepository
	postRepo       repository.PostRepository
	historyRepo    repository.HistoryRepository
	engagementRepo repository.EngagementRepository
	flags          *featureflags.Set
	now            func() time.Time
}

func NewRecommendationService(
	recRepo repository.RecommendationRepository,
	postRepo repository.PostRepository,
	historyRepo repository.HistoryRepository,
	engagementRepo repository.EngagementRepository,
	flags *featureflags.Set,
) *RecommendationService {
	return &RecommendationService{
		recRepo:        recRepo,
		postRepo:       postRepo,
		historyRepo:    historyRepo,
		engagementRepo: engagementRepo,
		flags:          flags,
		now:            time.Now,
	}
}

// ClampRecommendationLimit maps a requested size onto 1..50, defaulting
// to 10.
func ClampRecommendationLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecommendationLimit
	}
	if limit > MaxRecommendationLimit {
		return MaxRecommendationLimit
	}
	return limit
}

// Recommend ranks published posts for viewerID (0 for anonymous). Any
// store error fails the whole call.
func (s *RecommendationService) Recommend(ctx context.Context, viewerID uint, limit int) ([]*models.Post, error) {
	limit = ClampRecommendationLimit(limit)

	ctx, finish := observability.StartSpan(ctx, "recommendations", "recommend",
		attribute.Int("limit", limit), attribute.Bool("anonymous", viewerID == 0))
	posts, path, err := s.recommend(ctx, viewerID, limit)
	finish(err)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "recommendation failed", "path", path, "error", err)
		return nil, models.NewUpstreamError("Recommendation store", err)
	}
	if err := annotatePosts(ctx, s.engagementRepo, viewerID, posts); err != nil {
		return nil, models.NewUpstreamError("Recommendation store", err)
	}
	observability.Recommendations.WithLabelValues(path).Inc()
	return posts, nil
}

func (s *RecommendationService) recommend(ctx context.Context, viewerID uint, limit int) ([]*models.Post, string, error) {
	if viewerID == 0 {
		posts, err := s.trending(ctx, limit)
		return posts, "anonymous", err
	}
	if !s.flags.Enabled(featureflags.PersonalizedRecs, viewerID) {
		posts, err := s.trending(ctx, limit)
		return posts, "flag_off", err
	}

	interacted, err := s.interactedPostIDs(ctx, viewerID)
	if err != nil {
		return nil, "personalized", err
	}
	if len(interacted) == 0 {
		posts, err := s.trending(ctx, limit)
		return posts, "fallback", err
	}

	seen, err := s.postRepo.GetByIDs(ctx, interacted)
	if err != nil {
		return nil, "personalized", err
	}
	interests := make(map[string]struct{})
	for _, p := range seen {
		for _, t := range p.Tags {
			interests[t] = struct{}{}
		}
	}

	pool := max(limit*20, minCandidatePool)
	candidates, err := s.recRepo.Candidates(ctx, interacted, pool)
	if err != nil {
		return nil, "personalized", err
	}
	return blend(candidates, interests, limit), "personalized", nil
}

func (s *RecommendationService) trending(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.recRepo.Trending(ctx, s.now().Add(-trendingWindow), limit)
}

// interactedPostIDs is the union of the viewer's recent views, likes and
// favorites, in first-seen order.
func (s *RecommendationService) interactedPostIDs(ctx context.Context, viewerID uint) ([]uint, error) {
	viewed, err := s.historyRepo.RecentPostIDs(ctx, viewerID, interactionSample)
	if err != nil {
		return nil, err
	}
	liked, err := s.engagementRepo.RecentLikedPostIDs(ctx, viewerID, interactionSample)
	if err != nil {
		return nil, err
	}
	favorited, err := s.engagementRepo.RecentFavoritedPostIDs(ctx, viewerID, interactionSample)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{})
	var ids []uint
	for _, group := range [][]uint{viewed, liked, favorited} {
		for _, id := range group {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// blend picks up to min(5, limit) candidates sharing a tag with interests,
// fills the rest with the best remaining candidates and returns the
// selection ordered by engagement score, then id, descending.
func blend(candidates []*models.Post, interests map[string]struct{}, limit int) []*models.Post {
	ranked := make([]*models.Post, len(candidates))
	copy(ranked, candidates)
	sortByScore(ranked)

	quota := min(tagMatchedQuota, limit)
	picked := make(map[uint]struct{}, limit)
	out := make([]*models.Post, 0, limit)

	for _, p := range ranked {
		if len(out) == quota {
			break
		}
		if p.SharesTag(interests) {
			out = append(out, p)
			picked[p.ID] = struct{}{}
		}
	}
	for _, p := range ranked {
		if len(out) == limit {
			break
		}
		if _, ok := picked[p.ID]; ok {
			continue
		}
		out = append(out, p)
		picked[p.ID] = struct{}{}
	}

	sortByScore(out)
	return out
}

func sortByScore(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		si, sj := posts[i].EngagementScore(), posts[j].EngagementScore()
		if si != sj {
			return si > sj
		}
		return posts[i].ID > posts[j].ID
	})
}
