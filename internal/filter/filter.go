// Package filter applies the news relevance rules and the shared lookback
// cutoff.
package filter

import (
	"strings"
	"time"
)

// Relevance decides which news records are worth persisting.
//
// RequireTicker and Keywords combine with logical OR when both are set: a
// record matching only a keyword is kept even when the symbol text is absent.
// That is deliberately recall-over-precision; tightening it would silently
// drop keyword-only coverage.
type Relevance struct {
	RequireTicker bool
	Keywords      []string // expected lowercase
}

// Keep reports whether the record passes the relevance rules: symbol text
// present in title+summary when RequireTicker is set, or any keyword present,
// or no restriction configured at all. Matching is case-insensitive.
func (r Relevance) Keep(symbol, title, summary string) bool {
	if !r.RequireTicker && len(r.Keywords) == 0 {
		return true
	}
	text := strings.ToLower(title + " " + summary)
	if r.RequireTicker && strings.Contains(text, strings.ToLower(symbol)) {
		return true
	}
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Cutoff computes the oldest timestamp still eligible for persistence.
func Cutoff(now time.Time, lookback time.Duration) time.Time {
	return now.UTC().Add(-lookback)
}
