package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const suggestionPrompt = `Give writing advice for a technical blog post about: %s

Answer with exactly these three markdown sections:
## Outline
## Code Examples
## References`

// sections maps reply headings to suggestion types, in reply order.
var sections = []struct {
	heading string
	kind    string
}{
	{"## Outline", "outline"},
	{"## Code Examples", "code"},
	{"## References", "documentation"},
}

// Suggestions asks for an outline, code examples and references for topic.
func (c *HTTPClient) Suggestions(ctx context.Context, topic string) ([]Suggestion, error) {
	reply, err := c.complete(ctx, fmt.Sprintf(suggestionPrompt, topic))
	if err != nil {
		return nil, err
	}
	return parseSuggestions(reply), nil
}

// parseSuggestions cuts reply at the known headings. Sections that are
// missing or empty are left out.
func parseSuggestions(reply string) []Suggestion {
	out := make([]Suggestion, 0, len(sections))
	for i, s := range sections {
		start := strings.Index(reply, s.heading)
		if start < 0 {
			continue
		}
		body := reply[start+len(s.heading):]
		for _, next := range sections[i+1:] {
			if end := strings.Index(body, next.heading); end >= 0 {
				body = body[:end]
				break
			}
		}
		if body = strings.TrimSpace(body); body != "" {
			out = append(out, Suggestion{Type: s.kind, Content: body})
		}
	}
	return out
}

const analysisPrompt = `Read the blog post below. Reply with JSON only, in the form
{"summary": "<one sentence>", "tags": ["tag1", "tag2"]}
with at most 5 short lowercase tags.

Title: %s

%s`

// Analyze proposes a summary and tags for a post.
func (c *HTTPClient) Analyze(ctx context.Context, title, content string) (*Analysis, error) {
	if r := []rune(content); len(r) > 8000 {
		content = string(r[:8000])
	}
	reply, err := c.complete(ctx, fmt.Sprintf(analysisPrompt, title, content))
	if err != nil {
		return nil, err
	}
	return parseAnalysis(reply)
}

func parseAnalysis(reply string) (*Analysis, error) {
	reply = strings.TrimSpace(reply)
	if i := strings.Index(reply, "{"); i >= 0 {
		if j := strings.LastIndex(reply, "}"); j > i {
			reply = reply[i : j+1]
		}
	}
	var a Analysis
	if err := json.Unmarshal([]byte(reply), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if len(a.Tags) > 5 {
		a.Tags = a.Tags[:5]
	}
	a.Summary = strings.TrimSpace(a.Summary)
	return &a, nil
}
