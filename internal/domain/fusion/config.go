package fusion

import "fmt"

// Default ensemble tuning. Weights need not sum to 1: fusion computes a
// weighted sum, not a weighted average.
const (
	defaultNERWeight      = 0.30
	defaultLexicalWeight  = 0.35
	defaultCorpusWeight   = 0.20
	defaultSemanticWeight = 0.15

	defaultMinConfidence     = 0.30
	defaultNERThreshold      = 0.0
	defaultLexicalThreshold  = 80 // percent
	defaultCorpusThreshold   = 0.25
	defaultSemanticThreshold = 0.60
)

// Config carries the ensemble tunables: one weight and one acceptance
// threshold per extractor plus the global fused-confidence cutoff.
// Threshold units are extractor-specific (percent for lexical, [0,1]
// elsewhere).
type Config struct {
	NERWeight      float64 `koanf:"ner_weight" json:"ner_weight"`
	LexicalWeight  float64 `koanf:"lexical_weight" json:"lexical_weight"`
	CorpusWeight   float64 `koanf:"corpus_weight" json:"corpus_weight"`
	SemanticWeight float64 `koanf:"semantic_weight" json:"semantic_weight"`

	NERThreshold      float64 `koanf:"ner_threshold" json:"ner_threshold"`
	LexicalThreshold  float64 `koanf:"lexical_threshold" json:"lexical_threshold"`
	CorpusThreshold   float64 `koanf:"corpus_threshold" json:"corpus_threshold"`
	SemanticThreshold float64 `koanf:"semantic_threshold" json:"semantic_threshold"`

	MinConfidence float64 `koanf:"min_confidence" json:"min_confidence"`
}

// DefaultConfig returns the stock ensemble configuration.
func DefaultConfig() Config {
	return Config{
		NERWeight:         defaultNERWeight,
		LexicalWeight:     defaultLexicalWeight,
		CorpusWeight:      defaultCorpusWeight,
		SemanticWeight:    defaultSemanticWeight,
		NERThreshold:      defaultNERThreshold,
		LexicalThreshold:  defaultLexicalThreshold,
		CorpusThreshold:   defaultCorpusThreshold,
		SemanticThreshold: defaultSemanticThreshold,
		MinConfidence:     defaultMinConfidence,
	}
}

// Validate rejects configurations with negative weights or thresholds.
func (c Config) Validate() error {
	checks := map[string]float64{
		"ner_weight":         c.NERWeight,
		"lexical_weight":     c.LexicalWeight,
		"corpus_weight":      c.CorpusWeight,
		"semantic_weight":    c.SemanticWeight,
		"ner_threshold":      c.NERThreshold,
		"lexical_threshold":  c.LexicalThreshold,
		"corpus_threshold":   c.CorpusThreshold,
		"semantic_threshold": c.SemanticThreshold,
		"min_confidence":     c.MinConfidence,
	}
	for name, value := range checks {
		if value < 0 {
			return fmt.Errorf("%w: %s must be non-negative", ErrInvalidConfig, name)
		}
	}
	return nil
}

// ApplyOverrides returns a copy of cfg with recognized override keys
// applied. Unknown keys fail the whole call rather than being reflected in
// silently.
func ApplyOverrides(cfg Config, overrides map[string]float64) (Config, error) {
	out := cfg
	for key, value := range overrides {
		switch key {
		case "ner_weight":
			out.NERWeight = value
		case "lexical_weight":
			out.LexicalWeight = value
		case "corpus_weight":
			out.CorpusWeight = value
		case "semantic_weight":
			out.SemanticWeight = value
		case "ner_threshold":
			out.NERThreshold = value
		case "lexical_threshold":
			out.LexicalThreshold = value
		case "corpus_threshold":
			out.CorpusThreshold = value
		case "semantic_threshold":
			out.SemanticThreshold = value
		case "min_confidence":
			out.MinConfidence = value
		default:
			return cfg, fmt.Errorf("%w: %q", ErrUnknownOverride, key)
		}
	}
	if err := out.Validate(); err != nil {
		return cfg, err
	}
	return out, nil
}
