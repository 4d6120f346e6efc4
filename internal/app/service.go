// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	obsqueue "github.com/okian/skillsift/internal/adapters/mq/queue"
	workerpool "github.com/okian/skillsift/internal/adapters/mq/worker"
	"github.com/okian/skillsift/internal/adapters/nlp"
	repository "github.com/okian/skillsift/internal/adapters/repository"
	"github.com/okian/skillsift/internal/domain/dedupe"
	"github.com/okian/skillsift/internal/domain/extract"
	"github.com/okian/skillsift/internal/domain/feedback"
	"github.com/okian/skillsift/internal/domain/fusion"
	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/domain/ontology"
	"github.com/okian/skillsift/internal/domain/types"
	"github.com/okian/skillsift/internal/experiment"
	"github.com/okian/skillsift/pkg/logger"
	"github.com/okian/skillsift/pkg/metrics"
)

// Service wires the extraction ensemble, feedback loop, and experiment
// manager behind one facade for the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	ontology   *ontology.Ontology
	engine     *fusion.Engine
	loop       *feedback.Loop
	manager    *experiment.Manager
	store      experiment.Store
	deduper    dedupe.Deduper
	queue      obsqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	ontologyPath     string
	storePath        string
	ensembleCfg      fusion.Config
	extractorTimeout time.Duration

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of observation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the observation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the observation deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithOntologyPath sets a YAML ontology file to load instead of the
// built-in skill catalog.
func WithOntologyPath(path string) Option {
	return func(s *Service) {
		s.ontologyPath = path
	}
}

// WithStorePath enables file-backed experiment state at the given path.
func WithStorePath(path string) Option {
	return func(s *Service) {
		s.storePath = path
	}
}

// WithEnsembleConfig sets the baseline fusion weights and thresholds.
func WithEnsembleConfig(cfg fusion.Config) Option {
	return func(s *Service) {
		s.ensembleCfg = cfg
	}
}

// WithExtractorTimeout bounds each individual extractor call.
func WithExtractorTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.extractorTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        10000,
		dedupeSize:       50000,
		ensembleCfg:      fusion.DefaultConfig(),
		extractorTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting skill extraction service...")

	if s.ontologyPath != "" {
		ont, err := ontology.Load(ctx, s.ontologyPath)
		if err != nil {
			return fmt.Errorf("load ontology: %w", err)
		}
		s.ontology = ont
		s.logger.Info(ctx, "loaded ontology from file",
			logger.String("path", s.ontologyPath),
			logger.Int("skills", ont.Size()),
		)
	} else {
		s.ontology = ontology.New()
		s.logger.Info(ctx, "using built-in ontology", logger.Int("skills", s.ontology.Size()))
	}

	extractors := []extract.Extractor{
		extract.NewNERExtractor(s.ontology, nlp.NewAnnotator(s.ontology)),
		extract.NewLexicalExtractor(s.ontology, nlp.NewMatcher()),
		extract.NewCorpusExtractor(s.ontology, nlp.NewTFIDFVectorizer(s.ontology.ReferenceSkills())),
		extract.NewSemanticExtractor(s.ontology, nlp.NewEmbedder()),
	}
	s.engine = fusion.New(extractors,
		fusion.WithConfig(s.ensembleCfg),
		fusion.WithExtractorTimeout(s.extractorTimeout),
	)
	s.loop = feedback.New(s.engine)

	if s.storePath != "" {
		store, err := repository.NewFileStore(s.storePath)
		if err != nil {
			return fmt.Errorf("open experiment store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using file-backed experiment store", logger.String("path", s.storePath))
	} else {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory experiment store")
	}
	s.manager = experiment.NewManager(s.store)

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = obsqueue.NewInMemoryQueue(
		obsqueue.WithCapacity(s.queueSize),
		obsqueue.WithBufferSize(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.manager)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "skill extraction service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping skill extraction service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "error closing experiment store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "skill extraction service stopped")
}

// ExtractResult is an extraction response including the experiment
// routing that produced it.
type ExtractResult struct {
	Skills  []types.SkillEntry `json:"skills"`
	Summary types.Summary      `json:"summary"`

	// TestID and VariantID are set when an active test routed this request.
	TestID    string `json:"test_id,omitempty"`
	VariantID string `json:"variant_id,omitempty"`
}

// Extract runs the ensemble over text. When userID is set and a test is
// active, the user's sticky variant configuration overrides the baseline
// ensemble tunables for this one request.
func (s *Service) Extract(ctx context.Context, text, userID string) (ExtractResult, error) {
	cfg := s.engine.Config()
	result := ExtractResult{}

	if userID != "" {
		tests, err := s.manager.ActiveTests(ctx)
		if err != nil {
			return ExtractResult{}, err
		}
		for _, t := range tests {
			variantID, err := s.manager.AssignVariant(ctx, userID, t.ID)
			if err != nil {
				return ExtractResult{}, err
			}
			if variantID == "" {
				continue
			}
			v, ok := t.Variant(variantID)
			if !ok {
				continue
			}
			overridden, err := fusion.ApplyOverrides(cfg, v.Config)
			if err != nil {
				s.logger.Warn(ctx, "skipping invalid variant config",
					logger.String("test_id", t.ID),
					logger.String("variant_id", variantID),
					logger.Error(err),
				)
				continue
			}
			cfg = overridden
			result.TestID = t.ID
			result.VariantID = variantID
			break
		}
	}

	matches, err := s.engine.FuseWith(ctx, text, cfg)
	if err != nil {
		return ExtractResult{}, err
	}

	metrics.RecordSkillsReturned(len(matches))
	result.Skills = s.entries(matches)
	result.Summary = fusion.Summarize(matches)
	return result, nil
}

// entries enriches fused matches with their ontology category for the API.
func (s *Service) entries(matches []model.SkillMatch) []types.SkillEntry {
	out := make([]types.SkillEntry, len(matches))
	for i, m := range matches {
		out[i] = types.SkillEntry{
			Skill:      m.Skill,
			Category:   s.ontology.Category(m.Skill),
			Confidence: m.Confidence,
			Method:     string(m.Method),
			Context:    m.Context,
			Position:   [2]int{m.Position.Start, m.Position.End},
		}
	}
	return out
}

// SubmitFeedback records one user correction for later retraining.
func (s *Service) SubmitFeedback(ctx context.Context, text string, predicted, correct []string, userID string) {
	s.loop.Add(ctx, text, predicted, correct, userID)
	metrics.RecordFeedback()
}

// FeedbackCount returns the number of accumulated feedback samples.
func (s *Service) FeedbackCount() int {
	return s.loop.Count()
}

// Retrain adjusts the fused-confidence cutoff from accumulated feedback.
func (s *Service) Retrain(ctx context.Context) (feedback.RetrainResult, error) {
	res, err := s.loop.Retrain(ctx)
	if err != nil {
		return feedback.RetrainResult{}, err
	}
	metrics.RecordRetrain()
	return res, nil
}

// CreateTest creates a new A/B test in Draft state.
func (s *Service) CreateTest(ctx context.Context, in experiment.CreateTestInput) (experiment.Test, error) {
	return s.manager.CreateTest(ctx, in)
}

// StartTest activates a Draft test.
func (s *Service) StartTest(ctx context.Context, testID string) error {
	return s.manager.StartTest(ctx, testID)
}

// PauseTest pauses an Active test.
func (s *Service) PauseTest(ctx context.Context, testID string) error {
	return s.manager.PauseTest(ctx, testID)
}

// CompleteTest completes an Active or Paused test.
func (s *Service) CompleteTest(ctx context.Context, testID string) error {
	return s.manager.CompleteTest(ctx, testID)
}

// GetTest returns a test by id.
func (s *Service) GetTest(ctx context.Context, testID string) (experiment.Test, error) {
	return s.manager.GetTest(ctx, testID)
}

// ListTests returns all tests, newest first.
func (s *Service) ListTests(ctx context.Context) ([]experiment.Test, error) {
	return s.manager.ListTests(ctx)
}

// Results returns the current analysis for a test.
func (s *Service) Results(ctx context.Context, testID string) (experiment.Results, error) {
	return s.manager.Results(ctx, testID)
}

// SubmitObservation accepts one metric observation for asynchronous
// recording. Duplicate observation IDs are acknowledged without being
// re-recorded. Returns false when the queue is saturated; the ID is
// released so the caller may retry.
func (s *Service) SubmitObservation(ctx context.Context, obs model.Observation) (accepted, duplicate bool) {
	if s.deduper.SeenAndRecord(ctx, obs.ObservationID) {
		metrics.RecordObservationDuplicate()
		return true, true
	}

	if !s.queue.Enqueue(ctx, obs) {
		// Backpressure: release the ID so a retry is not treated as a dup.
		s.deduper.Unrecord(ctx, obs.ObservationID)
		return false, false
	}
	return true, false
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["feedbackSamples"] = s.loop.Count()
		stats["minConfidence"] = s.engine.MinConfidence()
		stats["ontologySkills"] = s.ontology.Size()
		if tests, err := s.manager.ListTests(ctx); err == nil {
			active := 0
			for _, t := range tests {
				if t.Status == experiment.StatusActive {
					active++
				}
			}
			stats["totalTests"] = len(tests)
			stats["activeTests"] = active
		}
	}

	return stats
}
