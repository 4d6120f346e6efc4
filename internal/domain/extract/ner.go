package extract

import (
	"context"
	"fmt"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/domain/ontology"
)

// Fixed confidences per annotation provenance. A span labeled by the
// skill-trained model outranks a generic entity hit, which outranks a
// noun-phrase guess.
const (
	skillLabelConfidence   = 0.90
	genericLabelConfidence = 0.70
	nounChunkConfidence    = 0.60
)

// SkillLabel is the annotation label produced by a skill-trained model.
const SkillLabel = "skill"

// genericLabels are fallback entity categories that often contain skills.
var genericLabels = map[string]bool{
	"org":      true,
	"product":  true,
	"language": true,
}

// Annotation is a labeled span produced by the NER backend.
type Annotation struct {
	Start    int
	End      int
	Text     string
	Label    string
	Sentence string
}

// Annotator is the external NER oracle.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]Annotation, error)
}

// Chunker is an optional Annotator capability: noun-phrase candidates from
// dependency-parse features. Backends without a parser simply do not
// implement it and the sub-step is skipped.
type Chunker interface {
	NounChunks(ctx context.Context, text string) ([]Annotation, error)
}

// NERExtractor turns annotations into skill matches.
type NERExtractor struct {
	ontology  *ontology.Ontology
	annotator Annotator
}

// NewNERExtractor creates an extractor backed by the given annotator.
func NewNERExtractor(ont *ontology.Ontology, annotator Annotator) *NERExtractor {
	return &NERExtractor{ontology: ont, annotator: annotator}
}

// Method identifies this extractor's signal source.
func (e *NERExtractor) Method() model.Method { return model.MethodNER }

// Extract annotates text and keeps spans that normalize into the reference
// vocabulary with confidence at or above threshold.
func (e *NERExtractor) Extract(ctx context.Context, text string, threshold float64) ([]model.SkillMatch, error) {
	annotations, err := e.annotator.Annotate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ner annotate: %w", err)
	}

	var matches []model.SkillMatch
	for _, ann := range annotations {
		confidence := 0.0
		switch {
		case ann.Label == SkillLabel:
			confidence = skillLabelConfidence
		case genericLabels[ann.Label]:
			confidence = genericLabelConfidence
		default:
			continue
		}
		if m, ok := e.match(ann, confidence, threshold); ok {
			matches = append(matches, m)
		}
	}

	// Noun-phrase candidates only when the backend has parse features.
	if chunker, ok := e.annotator.(Chunker); ok {
		chunks, err := chunker.NounChunks(ctx, text)
		if err == nil {
			for _, chunk := range chunks {
				if m, ok := e.match(chunk, nounChunkConfidence, threshold); ok {
					matches = append(matches, m)
				}
			}
		}
	}

	return matches, nil
}

// match normalizes an annotation and builds a SkillMatch when it resolves
// to a known reference skill and clears the threshold.
func (e *NERExtractor) match(ann Annotation, confidence, threshold float64) (model.SkillMatch, bool) {
	if confidence < threshold {
		return model.SkillMatch{}, false
	}
	skill := e.ontology.Normalize(ann.Text)
	if !e.ontology.HasSkill(skill) {
		return model.SkillMatch{}, false
	}
	return model.SkillMatch{
		Skill:      skill,
		Confidence: confidence,
		Method:     model.MethodNER,
		Context:    ann.Sentence,
		Position:   model.Span{Start: ann.Start, End: ann.End},
	}, true
}
