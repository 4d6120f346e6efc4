// Package nlp provides in-memory implementations of the external
// extraction oracles (NER annotator, lexical matcher, corpus vectorizer,
// sentence embedder). They stand in for model-serving backends and are
// deterministic so extraction results are reproducible in tests.
package nlp

import (
	"context"
	"strings"
	"unicode"

	"github.com/okian/skillsift/internal/domain/extract"
	"github.com/okian/skillsift/internal/domain/ontology"
)

// maxTermWords bounds gazetteer phrase length in words.
const maxTermWords = 3

// Annotator is a gazetteer-based NER backend: it labels occurrences of
// known vocabulary terms (canonical names and aliases) as skill entities.
// It also implements extract.Chunker with a capitalization heuristic.
type Annotator struct {
	// terms maps lowercase surface forms to their annotation label.
	terms map[string]string
}

// AnnotatorOption applies a configuration option to the Annotator.
type AnnotatorOption func(*Annotator)

// WithExtraTerms registers additional surface forms with a custom label,
// e.g. product names labeled "product" to exercise generic-entity fallback.
func WithExtraTerms(terms map[string]string) AnnotatorOption {
	return func(a *Annotator) {
		for term, label := range terms {
			a.terms[strings.ToLower(term)] = label
		}
	}
}

// NewAnnotator builds a gazetteer annotator from the ontology vocabulary.
func NewAnnotator(ont *ontology.Ontology, opts ...AnnotatorOption) *Annotator {
	a := &Annotator{terms: make(map[string]string)}
	for _, ref := range ont.ReferenceSkills() {
		a.terms[strings.ToLower(ref)] = extract.SkillLabel
	}
	for _, alias := range ont.Aliases() {
		a.terms[alias] = extract.SkillLabel
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Annotate scans text for gazetteer terms and returns labeled spans.
func (a *Annotator) Annotate(ctx context.Context, text string) ([]extract.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := tokenizeWithOffsets(text)
	var out []extract.Annotation
	for i := range tokens {
		// Longest phrase wins; skip shorter sub-phrases at the same start.
		for n := maxTermWords; n >= 1; n-- {
			if i+n > len(tokens) {
				continue
			}
			start := tokens[i].start
			end := tokens[i+n-1].end
			surface := text[start:end]
			label, ok := a.terms[strings.ToLower(surface)]
			if !ok {
				continue
			}
			out = append(out, extract.Annotation{
				Start:    start,
				End:      end,
				Text:     surface,
				Label:    label,
				Sentence: sentenceAround(text, start, end),
			})
			break
		}
	}
	return out, nil
}

// NounChunks returns capitalized token runs as noun-phrase candidates.
// This models the dependency-parse chunking of a full NLP pipeline.
func (a *Annotator) NounChunks(ctx context.Context, text string) ([]extract.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := tokenizeWithOffsets(text)
	var out []extract.Annotation
	for i := 0; i < len(tokens); {
		if !startsUpper(tokens[i].text) {
			i++
			continue
		}
		j := i + 1
		for j < len(tokens) && startsUpper(tokens[j].text) && j-i < maxTermWords {
			j++
		}
		start := tokens[i].start
		end := tokens[j-1].end
		out = append(out, extract.Annotation{
			Start:    start,
			End:      end,
			Text:     text[start:end],
			Label:    "np",
			Sentence: sentenceAround(text, start, end),
		})
		i = j
	}
	return out, nil
}

// token carries a word and its byte offsets in the source text.
type token struct {
	text  string
	start int
	end   int
}

// tokenizeWithOffsets splits text into words keeping + # . as word
// characters, recording byte offsets.
func tokenizeWithOffsets(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		wordRune := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.'
		if wordRune && start < 0 {
			start = i
		}
		if !wordRune && start >= 0 {
			tokens = append(tokens, token{text: text[start:i], start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{text: text[start:], start: start, end: len(text)})
	}
	return tokens
}

// sentenceAround returns the sentence containing [start, end).
func sentenceAround(text string, start, end int) string {
	from := 0
	for i := start - 1; i >= 0; i-- {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' || text[i] == '\n' {
			from = i + 1
			break
		}
	}
	to := len(text)
	for i := end; i < len(text); i++ {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' || text[i] == '\n' {
			to = i + 1
			break
		}
	}
	return strings.TrimSpace(text[from:to])
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
