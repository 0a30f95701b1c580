package models

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxTags      = 10
	MaxTagLength = 30
)

// NormalizeTags lowercases and trims tags, drops empty and over-long ones
// and duplicates, and keeps at most MaxTags in first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || utf8.RuneCountInString(t) > MaxTagLength {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
