package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/domain/ontology"
)

// exactPatternConfidence is assigned to the special-cased exact hits below.
const exactPatternConfidence = 0.95

// rContextClues gate the single-letter "R" token: without a programming
// context nearby it is almost always a false positive.
var rContextClues = []string{"programming", "language", "statistical", "data", "developer", "software"}

// Matcher is the external lexical-similarity oracle. BestMatch returns the
// closest reference string and a similarity score in percent (0-100).
type Matcher interface {
	BestMatch(candidate string, refs []string) (string, int)
}

// LexicalExtractor finds skills by fuzzy token matching against the
// reference vocabulary.
type LexicalExtractor struct {
	ontology *ontology.Ontology
	matcher  Matcher

	// skillWords holds every lowercase word appearing in the reference
	// vocabulary; used to prune n-gram candidates.
	skillWords map[string]bool
}

// NewLexicalExtractor creates an extractor backed by the given matcher.
func NewLexicalExtractor(ont *ontology.Ontology, matcher Matcher) *LexicalExtractor {
	words := make(map[string]bool)
	for _, ref := range ont.ReferenceSkills() {
		for _, w := range strings.Fields(strings.ToLower(ref)) {
			words[w] = true
		}
	}
	return &LexicalExtractor{ontology: ont, matcher: matcher, skillWords: words}
}

// Method identifies this extractor's signal source.
func (e *LexicalExtractor) Method() model.Method { return model.MethodLexical }

// Extract tokenizes text and fuzzy-matches candidate tokens and n-grams
// against the reference vocabulary. Threshold is a percent (0-100).
func (e *LexicalExtractor) Extract(ctx context.Context, text string, threshold float64) ([]model.SkillMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lexical extract: %w", err)
	}

	var matches []model.SkillMatch
	matches = append(matches, e.exactPatterns(text)...)

	refs := e.ontology.ReferenceSkills()
	lower := strings.ToLower(text)
	for _, candidate := range e.candidates(text) {
		if len(candidate) < 2 {
			continue
		}
		best, score := e.matcher.BestMatch(candidate, refs)
		if best == "" || float64(score) < threshold {
			continue
		}

		span := model.Span{}
		if idx := strings.Index(lower, strings.ToLower(candidate)); idx >= 0 {
			span = model.Span{Start: idx, End: idx + len(candidate)}
		}
		matches = append(matches, model.SkillMatch{
			Skill:      e.ontology.Normalize(best),
			Confidence: float64(score) / 100.0,
			Method:     model.MethodLexical,
			Context:    snippet(text, span.Start, span.End),
			Position:   span,
		})
	}
	return matches, nil
}

// exactPatterns handles skills that fuzzy matching mangles: symbol-bearing
// names and the single-letter R language.
func (e *LexicalExtractor) exactPatterns(text string) []model.SkillMatch {
	lower := strings.ToLower(text)
	var out []model.SkillMatch

	emit := func(raw string) {
		span := locate(text, raw)
		out = append(out, model.SkillMatch{
			Skill:      e.ontology.Normalize(raw),
			Confidence: exactPatternConfidence,
			Method:     model.MethodLexical,
			Context:    snippet(text, span.Start, span.End),
			Position:   span,
		})
	}

	if strings.Contains(lower, "c++") || containsWord(lower, "cpp") {
		emit("c++")
	}
	if strings.Contains(lower, "c#") || containsWord(lower, "csharp") {
		emit("c#")
	}
	if containsWord(text, "R") {
		for _, clue := range rContextClues {
			if strings.Contains(lower, clue) {
				emit("r")
				break
			}
		}
	}
	return out
}

// candidates returns unique tokens plus bigrams/trigrams anchored on words
// that appear in the skill vocabulary (or short words, which are more
// likely to be skill names).
func (e *LexicalExtractor) candidates(text string) []string {
	tokens := tokenize(text)

	seen := make(map[string]bool)
	var out []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for i, tok := range tokens {
		add(tok)
		low := strings.ToLower(tok)
		if !e.skillWords[low] && len(low) > 4 {
			continue
		}
		if i+1 < len(tokens) {
			add(tokens[i] + " " + tokens[i+1])
		}
		if i+2 < len(tokens) {
			add(tokens[i] + " " + tokens[i+1] + " " + tokens[i+2])
		}
	}
	return out
}

// tokenize splits text into words, treating + # . as word characters so
// tech names like "c++", "c#" and "node.js" survive intact.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if w != "" {
			tokens = append(tokens, w)
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// containsWord reports whether w occurs in text as a whole word.
func containsWord(text, w string) bool {
	for _, tok := range tokenize(text) {
		if tok == w {
			return true
		}
	}
	return false
}
