// Package enrichment talks to an OpenAI-compatible chat completions API to
// suggest tags, summaries and writing ideas.
package enrichment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/00xu00/blog/internal/middleware"
	"github.com/00xu00/blog/internal/observability"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("ai provider not configured")

const breakerName = "ai-provider"

// Config configures the HTTP client.
type Config struct {
	URL           string
	APIKey        string
	Model         string
	RatePerSecond float64
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// Suggestion is one block of writing advice.
type Suggestion struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Analysis is the tags and summary proposed for a post.
type Analysis struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Client is the AI provider as seen by the rest of the application.
type Client interface {
	Enabled() bool
	Suggestions(ctx context.Context, topic string) ([]Suggestion, error)
	Analyze(ctx context.Context, title, content string) (*Analysis, error)
}

// HTTPClient calls the chat completions endpoint through a token bucket
// and a circuit breaker that opens after 5 consecutive failures.
type HTTPClient struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[string]
}

// New builds an HTTPClient from cfg.
func New(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	observability.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			middleware.Logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
			observability.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &HTTPClient{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		cb:      cb,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Enabled reports whether an API key is configured.
func (c *HTTPClient) Enabled() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != ""
}

// State exposes the breaker state.
func (c *HTTPClient) State() gobreaker.State {
	return c.cb.State()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one user prompt and returns the assistant reply.
func (c *HTTPClient) complete(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return c.cb.Execute(func() (string, error) {
		return c.post(ctx, prompt)
	})
}

func (c *HTTPClient) post(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ai provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read ai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai provider returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode ai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("ai response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}
