package nlp

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Matcher is an edit-distance lexical similarity backend.
type Matcher struct{}

// NewMatcher creates a lexical matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// BestMatch returns the reference closest to candidate and its similarity
// as a percent. Similarity is the normalized Levenshtein ratio:
// 100 * (1 - distance/maxLen), case-insensitive.
func (m *Matcher) BestMatch(candidate string, refs []string) (string, int) {
	lowered := strings.ToLower(candidate)

	best := ""
	bestScore := -1
	for _, ref := range refs {
		score := ratio(lowered, strings.ToLower(ref))
		if score > bestScore {
			best = ref
			bestScore = score
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}

// ratio converts Levenshtein distance to a 0-100 similarity score.
func ratio(a, b string) int {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 100 * (longest - dist) / longest
	if score < 0 {
		return 0
	}
	return score
}
