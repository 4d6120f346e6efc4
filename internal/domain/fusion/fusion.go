// Package fusion implements the ensemble engine that merges the four
// extractors' candidate matches into one ranked, deduplicated skill list
// under a weighted-confidence policy.
package fusion

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/skillsift/internal/domain/extract"
	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/domain/types"
	"github.com/okian/skillsift/pkg/logger"
	"github.com/okian/skillsift/pkg/metrics"
)

// defaultExtractorTimeout bounds a single extractor backend call. A timed
// out extractor is treated as unavailable, not as a fatal error.
const defaultExtractorTimeout = 5 * time.Second

// Engine fuses extractor signals. The ontology and extractor list are
// immutable after construction; the config is guarded for concurrent
// readers with a single writer.
type Engine struct {
	mu  sync.RWMutex
	cfg Config

	// extractors in invocation order: NER, lexical, corpus, semantic.
	extractors []extract.Extractor
	timeout    time.Duration
	logger     logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithConfig sets the initial ensemble configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.Validate() == nil {
			e.cfg = cfg
		}
	}
}

// WithExtractorTimeout bounds each extractor backend call.
func WithExtractorTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New constructs an Engine over the given extractors. Extractor order is
// the invocation order and breaks fused-score ties.
func New(extractors []extract.Extractor, opts ...Option) *Engine {
	e := &Engine{
		cfg:        DefaultConfig(),
		extractors: extractors,
		timeout:    defaultExtractorTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logger.Get().Named("fusion")
	}
	return e
}

// Config returns a copy of the current ensemble configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig replaces the ensemble configuration wholesale.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	return nil
}

// MinConfidence returns the global fused-confidence cutoff.
func (e *Engine) MinConfidence() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.MinConfidence
}

// SetMinConfidence updates only the fused-confidence cutoff.
func (e *Engine) SetMinConfidence(v float64) {
	e.mu.Lock()
	e.cfg.MinConfidence = v
	e.mu.Unlock()
}

// Fuse extracts skills from text under the engine's current configuration.
func (e *Engine) Fuse(ctx context.Context, text string) ([]model.SkillMatch, error) {
	return e.FuseWith(ctx, text, e.Config())
}

// group accumulates contributions for one canonical skill.
type group struct {
	skill        string
	fused        float64
	best         model.SkillMatch
	bestWeighted float64
}

// FuseWith extracts skills from text under an explicit configuration,
// leaving the engine's shared config untouched. Used when an experiment
// variant supplies per-request overrides.
//
// A failing or timed out extractor is logged and excluded; the call only
// fails when every extractor is unavailable.
func (e *Engine) FuseWith(ctx context.Context, text string, cfg Config) ([]model.SkillMatch, error) {
	start := time.Now()

	groups := make([]*group, 0, 16)
	index := make(map[string]*group)
	succeeded := 0

	for _, ex := range e.extractors {
		matches, err := e.runExtractor(ctx, ex, text, cfg)
		if err != nil {
			e.logger.Warn(ctx, "extractor unavailable",
				logger.String("method", string(ex.Method())),
				logger.Error(err),
			)
			metrics.RecordExtractorError(string(ex.Method()))
			continue
		}
		succeeded++

		weight := cfg.weightFor(ex.Method())
		for _, m := range matches {
			weighted := m.Confidence * weight
			g, ok := index[m.Skill]
			if !ok {
				g = &group{skill: m.Skill, best: m, bestWeighted: weighted}
				index[m.Skill] = g
				groups = append(groups, g)
			}
			g.fused += weighted
			// Strictly greater keeps the first contributor on ties,
			// preserving extractor invocation order.
			if weighted > g.bestWeighted {
				g.bestWeighted = weighted
				g.best = m
			}
		}
	}

	if succeeded == 0 {
		return nil, ErrNoBackend
	}

	fusedMatches := make([]model.SkillMatch, 0, len(groups))
	for _, g := range groups {
		if g.fused < cfg.MinConfidence {
			continue
		}
		fusedMatches = append(fusedMatches, model.SkillMatch{
			Skill:      g.skill,
			Confidence: g.fused,
			Method:     model.MethodEnsemble,
			Context:    g.best.Context,
			Position:   g.best.Position,
		})
	}

	// Stable: equal scores keep group-creation order.
	sort.SliceStable(fusedMatches, func(i, j int) bool {
		return fusedMatches[i].Confidence > fusedMatches[j].Confidence
	})

	metrics.RecordExtraction(float64(time.Since(start).Milliseconds()))
	e.logger.Debug(ctx, "fused extraction complete",
		logger.Int("skills", len(fusedMatches)),
		logger.Int("extractors_ok", succeeded),
	)
	return fusedMatches, nil
}

// runExtractor calls one extractor under the engine timeout.
func (e *Engine) runExtractor(ctx context.Context, ex extract.Extractor, text string, cfg Config) ([]model.SkillMatch, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return ex.Extract(callCtx, text, cfg.thresholdFor(ex.Method()))
}

// weightFor maps a method to its configured ensemble weight.
func (c Config) weightFor(m model.Method) float64 {
	switch m {
	case model.MethodNER:
		return c.NERWeight
	case model.MethodLexical:
		return c.LexicalWeight
	case model.MethodCorpus:
		return c.CorpusWeight
	case model.MethodSemantic:
		return c.SemanticWeight
	default:
		return 0
	}
}

// thresholdFor maps a method to its configured acceptance threshold.
func (c Config) thresholdFor(m model.Method) float64 {
	switch m {
	case model.MethodNER:
		return c.NERThreshold
	case model.MethodLexical:
		return c.LexicalThreshold
	case model.MethodCorpus:
		return c.CorpusThreshold
	case model.MethodSemantic:
		return c.SemanticThreshold
	default:
		return 0
	}
}

// Summarize aggregates a fused result set for API responses.
func Summarize(matches []model.SkillMatch) types.Summary {
	summary := types.Summary{MethodCounts: make(map[string]int)}
	unique := make(map[string]bool)

	var total float64
	for _, m := range matches {
		summary.TotalSkills++
		total += m.Confidence
		summary.MethodCounts[string(m.Method)]++
		unique[m.Skill] = true
	}
	summary.UniqueSkills = len(unique)
	if summary.TotalSkills > 0 {
		summary.AvgConfidence = total / float64(summary.TotalSkills)
	}
	return summary
}
