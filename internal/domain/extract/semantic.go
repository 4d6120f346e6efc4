package extract

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/domain/ontology"
)

// Embedder is the external sentence-embedding oracle. Embed returns a
// fixed-dimension vector for any string.
type Embedder interface {
	Embed(text string) []float64
}

// SemanticExtractor compares the text embedding against precomputed
// reference skill embeddings by cosine similarity.
type SemanticExtractor struct {
	ontology *ontology.Ontology
	embedder Embedder

	// refVectors[i] is the embedding of ontology.ReferenceSkills()[i],
	// computed once at construction.
	refVectors [][]float64
}

// NewSemanticExtractor creates an extractor and precomputes reference
// skill embeddings.
func NewSemanticExtractor(ont *ontology.Ontology, embedder Embedder) *SemanticExtractor {
	refs := ont.ReferenceSkills()
	vectors := make([][]float64, len(refs))
	for i, ref := range refs {
		vectors[i] = embedder.Embed(ref)
	}
	return &SemanticExtractor{ontology: ont, embedder: embedder, refVectors: vectors}
}

// Method identifies this extractor's signal source.
func (e *SemanticExtractor) Method() model.Method { return model.MethodSemantic }

// Extract embeds text once and scores it against every reference skill.
// Threshold is a cosine similarity in [0,1].
func (e *SemanticExtractor) Extract(ctx context.Context, text string, threshold float64) ([]model.SkillMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("semantic extract: %w", err)
	}
	textVector := e.embedder.Embed(text)

	refs := e.ontology.ReferenceSkills()
	var matches []model.SkillMatch
	for i, ref := range refs {
		similarity := cosine(textVector, e.refVectors[i])
		if similarity < threshold {
			continue
		}
		span := locate(text, ref)
		matches = append(matches, model.SkillMatch{
			Skill:      ref,
			Confidence: similarity,
			Method:     model.MethodSemantic,
			Context:    snippet(text, span.Start, span.End),
			Position:   span,
		})
	}
	return matches, nil
}

// cosine computes cosine similarity between equal-length vectors,
// clamped to [0,1]. Mismatched or zero vectors score 0.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
