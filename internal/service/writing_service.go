package service

import (
	"context"
	"errors"
	"strings"

	"github.com/00xu00/blog/internal/enrichment"
	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/validation"
)

// WritingService asks the AI provider for drafting help.
type WritingService struct {
	client enrichment.Client
}

type SuggestionInput struct {
	Topic string `json:"topic" validate:"required,max=200"`
}

func NewWritingService(client enrichment.Client) *WritingService {
	return &WritingService{client: client}
}

func (s *WritingService) Suggestions(ctx context.Context, in SuggestionInput) ([]enrichment.Suggestion, error) {
	in.Topic = strings.TrimSpace(in.Topic)
	if verr := validation.Struct(in); verr != nil {
		return nil, verr
	}
	if s.client == nil || !s.client.Enabled() {
		return nil, models.NewUpstreamError("AI provider", enrichment.ErrDisabled)
	}
	suggestions, err := s.client.Suggestions(ctx, in.Topic)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, models.NewUpstreamError("AI provider", err)
	}
	return suggestions, nil
}
