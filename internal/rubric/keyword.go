// Package rubric scores free-text reflections against a lesson rubric.
package rubric

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/phasegate/internal/content"
	"github.com/abhisek/phasegate/internal/engine"
)

// KeywordGrader scores a reflection by the share of rubric keywords it
// mentions. Text shorter than the rubric's minimum length is scaled down in
// proportion.
type KeywordGrader struct{}

var _ engine.Grader = KeywordGrader{}

func (KeywordGrader) Grade(_ context.Context, r content.Rubric, text string) (float64, error) {
	return KeywordScore(r, text), nil
}

// KeywordScore returns a 0..100 score. A rubric without keywords scores on
// length alone.
func KeywordScore(r content.Rubric, text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	coverage := 1.0
	if len(r.Keywords) > 0 {
		lower := strings.ToLower(text)
		hits := 0
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lower, kw) {
				hits++
			}
		}
		coverage = float64(hits) / float64(len(r.Keywords))
	}

	if n := utf8.RuneCountInString(text); r.MinLength > 0 && n < r.MinLength {
		coverage *= float64(n) / float64(r.MinLength)
	}
	return coverage * 100
}

// Matched lists the rubric keywords present in text, in rubric order.
func Matched(r content.Rubric, text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range r.Keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k != "" && strings.Contains(lower, k) {
			out = append(out, kw)
		}
	}
	return out
}
