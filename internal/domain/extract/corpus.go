package extract

import (
	"context"
	"fmt"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/domain/ontology"
)

// Vectorizer is the external corpus-similarity oracle. Implementations are
// fit once over the reference vocabulary (plus aliases) before use.
type Vectorizer interface {
	// Similarity scores how strongly ref is represented in text, in [0,1].
	Similarity(text, ref string) float64
}

// CorpusExtractor scores every reference skill against the text using the
// corpus vectorizer and keeps those above threshold.
type CorpusExtractor struct {
	ontology   *ontology.Ontology
	vectorizer Vectorizer
}

// NewCorpusExtractor creates an extractor backed by the given vectorizer.
func NewCorpusExtractor(ont *ontology.Ontology, vectorizer Vectorizer) *CorpusExtractor {
	return &CorpusExtractor{ontology: ont, vectorizer: vectorizer}
}

// Method identifies this extractor's signal source.
func (e *CorpusExtractor) Method() model.Method { return model.MethodCorpus }

// Extract scores each reference skill against text. Threshold is in [0,1].
func (e *CorpusExtractor) Extract(ctx context.Context, text string, threshold float64) ([]model.SkillMatch, error) {
	var matches []model.SkillMatch
	for _, ref := range e.ontology.ReferenceSkills() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("corpus extract: %w", err)
		}
		similarity := e.vectorizer.Similarity(text, ref)
		if similarity < threshold {
			continue
		}
		span := locate(text, ref)
		matches = append(matches, model.SkillMatch{
			Skill:      ref,
			Confidence: similarity,
			Method:     model.MethodCorpus,
			Context:    snippet(text, span.Start, span.End),
			Position:   span,
		})
	}
	return matches, nil
}
