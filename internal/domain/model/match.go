// Package model contains domain models passed between layers.
package model

// Method identifies which signal source produced a match.
type Method string

// Signal sources, in invocation order. MethodEnsemble marks fused results.
const (
	MethodNER      Method = "ner"
	MethodLexical  Method = "lexical"
	MethodCorpus   Method = "corpus_similarity"
	MethodSemantic Method = "semantic_similarity"
	MethodEnsemble Method = "ensemble"
)

// Span marks the byte offsets of a match in the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SkillMatch is a single skill detection. It is created once per extraction
// call and never mutated afterwards. Confidence is in [0,1] for raw
// extractor matches; fused scores are weighted sums and may exceed 1.
type SkillMatch struct {
	Skill      string  `json:"skill"`
	Confidence float64 `json:"confidence"`
	Method     Method  `json:"method"`
	Context    string  `json:"context"`
	Position   Span    `json:"position"`
}
