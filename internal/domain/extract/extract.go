// Package extract defines the contract for the independent skill-signal
// extractors and the four implementations fused by the ensemble engine.
//
// Each extractor consumes a narrow backend oracle (annotator, lexical
// matcher, corpus vectorizer, embedder) plus the shared read-only ontology.
// Extractors normalize candidate spans through the ontology and discard
// anything below the acceptance threshold handed to Extract.
package extract

import (
	"context"
	"strings"

	"github.com/okian/skillsift/internal/domain/model"
)

// contextWindow is how many bytes of surrounding text a match keeps.
const contextWindow = 50

// Extractor produces candidate skill matches from raw text.
type Extractor interface {
	// Method identifies this extractor's signal source.
	Method() model.Method

	// Extract returns candidate matches with confidence at or above
	// threshold. Threshold units are extractor-specific: a percent for the
	// lexical extractor, a [0,1] confidence elsewhere.
	Extract(ctx context.Context, text string, threshold float64) ([]model.SkillMatch, error)
}

// snippet returns up to contextWindow bytes of text on each side of [start, end).
func snippet(text string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	from := start - contextWindow
	if from < 0 {
		from = 0
	}
	to := end + contextWindow
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}

// locate finds the first case-insensitive occurrence of needle in text.
// Returns a zero span when the needle does not literally occur.
func locate(text, needle string) model.Span {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(needle))
	if idx < 0 {
		return model.Span{}
	}
	return model.Span{Start: idx, End: idx + len(needle)}
}
