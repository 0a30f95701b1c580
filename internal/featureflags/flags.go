// Package featureflags evaluates per-user feature switches configured as
// "name=on,other=25%".
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags used by the application.
const (
	PersonalizedRecs = "personalized_recs"
	AIEnrichment     = "ai_enrichment"
)

// rule is a parsed flag value: a percentage of users in [0,100].
type rule struct {
	raw     string
	percent int
}

// Set is an immutable collection of parsed flags.
type Set struct {
	rules map[string]rule
}

// Parse reads a comma separated list of name=value pairs. Values may be
// on/true/1, off/false/0 or N%. Malformed pairs are skipped.
func Parse(raw string) *Set {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" {
			continue
		}
		pct, ok := percent(value)
		if !ok {
			continue
		}
		rules[name] = rule{raw: value, percent: pct}
	}
	return &Set{rules: rules}
}

func percent(value string) (int, bool) {
	switch value {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}
	digits, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return min(max(n, 0), 100), true
}

// Enabled reports whether name is on for userID. Partial rollouts hash the
// flag name with the user id so a user keeps the same answer, and are off
// for anonymous callers (userID 0). Unknown flags are off.
func (s *Set) Enabled(name string, userID uint) bool {
	if s == nil {
		return false
	}
	r, ok := s.rules[normalize(name)]
	if !ok {
		return false
	}
	switch {
	case r.percent >= 100:
		return true
	case r.percent <= 0, userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// Names returns the configured flag names in order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.rules))
	for name := range s.rules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Raw returns the configured value of every flag.
func (s *Set) Raw() map[string]string {
	out := make(map[string]string, len(s.rules))
	for name, r := range s.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (s *Set) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(s.rules))
	for name := range s.rules {
		out[name] = s.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
