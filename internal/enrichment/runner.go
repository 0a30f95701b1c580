package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const maxSummaryRunes = 500

// PostStore is the persistence the runner needs. ApplyEnrichment merges
// tags into whatever the post holds at write time and keeps an existing
// summary.
type PostStore interface {
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ApplyEnrichment(ctx context.Context, id uint, tags []string, summary string) error
}

// Runner enriches freshly published posts in the background. At most
// `workers` jobs run at once and each job, including the wait for a slot,
// is bounded by timeout.
type Runner struct {
	client  Client
	posts   PostStore
	sem     chan struct{}
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a runner; workers <= 0 means 4 and timeout <= 0 means 20s.
func NewRunner(client Client, posts PostStore, workers int, timeout time.Duration) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Runner{
		client:  client,
		posts:   posts,
		sem:     make(chan struct{}, workers),
		timeout: timeout,
	}
}

// Enqueue starts enrichment of postID without blocking the caller. It
// reports false when the provider is disabled.
func (r *Runner) Enqueue(postID uint) bool {
	if r == nil || r.client == nil || !r.client.Enabled() {
		return false
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-ctx.Done():
			observability.EnrichmentResults.WithLabelValues("skipped").Inc()
			return
		}
		r.run(ctx, postID)
	}()
	return true
}

func (r *Runner) run(ctx context.Context, postID uint) {
	var err error
	ctx, finish := observability.StartSpan(ctx, "enrichment", "analyze",
		attribute.Int64("post.id", int64(postID)))
	defer func() { finish(err) }()

	post, err := r.posts.GetByID(ctx, postID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "enrichment: load post failed", "post_id", postID, "error", err)
		observability.EnrichmentResults.WithLabelValues("error").Inc()
		return
	}

	analysis, err := r.client.Analyze(ctx, post.Title, post.Content)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "enrichment: provider call failed", "post_id", postID, "error", err)
		observability.EnrichmentResults.WithLabelValues("error").Inc()
		return
	}

	summary := analysis.Summary
	if runes := []rune(summary); len(runes) > maxSummaryRunes {
		summary = string(runes[:maxSummaryRunes])
	}
	if err = r.posts.ApplyEnrichment(ctx, postID, models.NormalizeTags(analysis.Tags), summary); err != nil {
		middleware.Logger.WarnContext(ctx, "enrichment: save failed", "post_id", postID, "error", err)
		observability.EnrichmentResults.WithLabelValues("error").Inc()
		return
	}
	observability.EnrichmentResults.WithLabelValues("ok").Inc()
}

// Wait blocks until every started job has finished.
func (r *Runner) Wait() {
	if r != nil {
		r.wg.Wait()
	}
}
