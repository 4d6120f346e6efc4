package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/pkg/logger"
	"github.com/okian/skillsift/pkg/metrics"
)

// Creation defaults and validation tolerance.
const (
	defaultDuration        = 14 * 24 * time.Hour
	defaultTargetMetric    = "f1_score"
	defaultMinSampleSize   = 100
	defaultConfidenceLevel = 0.95
	defaultPower           = 0.8
	trafficSumTolerance    = 0.01
	totalTrafficPercent    = 100.0
)

// Manager owns the experiment lifecycle and is the only writer to the
// store. Assignment check-then-write is serialized so concurrent calls for
// the same (user, test) pair resolve to one variant.
type Manager struct {
	store Store

	// assignMu guards the sticky-assignment read-modify-write and the rng.
	assignMu sync.Mutex
	rng      *rand.Rand

	logger logger.Logger
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithRandSource seeds the assignment rng, for deterministic tests.
func WithRandSource(src rand.Source) Option {
	return func(m *Manager) {
		if src != nil {
			m.rng = rand.New(src) //nolint:gosec // traffic bucketing, not crypto
		}
	}
}

// WithLogger sets a custom logger for the manager.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // traffic bucketing, not crypto
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("experiment")
	}
	return m
}

// CreateTestInput carries the create-test parameters. Zero values fall
// back to the package defaults.
type CreateTestInput struct {
	Name              string
	Description       string
	Variants          []Variant
	Duration          time.Duration
	TargetMetric      string
	MinimumSampleSize int
	ConfidenceLevel   float64
	Power             float64
	CreatedBy         string
}

// CreateTest validates the variant list and creates a Draft test with a
// fresh id. Validation failures reject the call before any state mutation.
func (m *Manager) CreateTest(ctx context.Context, in CreateTestInput) (Test, error) {
	if len(in.Variants) == 0 {
		return Test{}, ErrNoVariants
	}

	var totalTraffic float64
	controls := 0
	for _, v := range in.Variants {
		totalTraffic += v.TrafficPercent
		if v.IsControl {
			controls++
		}
	}
	if math.Abs(totalTraffic-totalTrafficPercent) > trafficSumTolerance {
		return Test{}, fmt.Errorf("%w: got %.2f%%", ErrTrafficSplit, totalTraffic)
	}
	if controls != 1 {
		return Test{}, fmt.Errorf("%w: got %d", ErrControlCount, controls)
	}

	// Assignments are keyed by variant id, so every variant needs a unique,
	// non-empty one. Blank ids get a generated uuid.
	variants := append([]Variant(nil), in.Variants...)
	seen := make(map[string]struct{}, len(variants))
	for i := range variants {
		if strings.TrimSpace(variants[i].ID) == "" {
			variants[i].ID = uuid.NewString()
		}
		if _, dup := seen[variants[i].ID]; dup {
			return Test{}, fmt.Errorf("%w: %q", ErrDuplicateVariant, variants[i].ID)
		}
		seen[variants[i].ID] = struct{}{}
	}

	duration := in.Duration
	if duration <= 0 {
		duration = defaultDuration
	}
	targetMetric := in.TargetMetric
	if targetMetric == "" {
		targetMetric = defaultTargetMetric
	}
	minSamples := in.MinimumSampleSize
	if minSamples <= 0 {
		minSamples = defaultMinSampleSize
	}
	confidence := in.ConfidenceLevel
	if confidence <= 0 || confidence >= 1 {
		confidence = defaultConfidenceLevel
	}
	power := in.Power
	if power <= 0 || power >= 1 {
		power = defaultPower
	}
	createdBy := in.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	now := time.Now().UTC()
	t := Test{
		ID:                uuid.NewString(),
		Name:              in.Name,
		Description:       in.Description,
		Variants:          variants,
		StartDate:         now,
		EndDate:           now.Add(duration),
		Status:            StatusDraft,
		TargetMetric:      targetMetric,
		MinimumSampleSize: minSamples,
		ConfidenceLevel:   confidence,
		Power:             power,
		CreatedBy:         createdBy,
	}

	if err := m.store.PutTest(ctx, t); err != nil {
		return Test{}, fmt.Errorf("create test: %w", err)
	}

	m.logger.Info(ctx, "test created",
		logger.String("test_id", t.ID),
		logger.String("name", t.Name),
		logger.Int("variants", len(t.Variants)),
	)
	metrics.RecordTestCreated()
	return t, nil
}

// StartTest moves a Draft test to Active and refreshes its start date.
func (m *Manager) StartTest(ctx context.Context, testID string) error {
	return m.transition(ctx, testID, func(t *Test) error {
		if t.Status != StatusDraft {
			return fmt.Errorf("%w: cannot start a %s test", ErrInvalidTransition, t.Status)
		}
		t.Status = StatusActive
		t.StartDate = time.Now().UTC()
		return nil
	})
}

// PauseTest moves an Active test to Paused. Paused tests have no resume;
// the only way forward is completion.
func (m *Manager) PauseTest(ctx context.Context, testID string) error {
	return m.transition(ctx, testID, func(t *Test) error {
		if t.Status != StatusActive {
			return fmt.Errorf("%w: cannot pause a %s test", ErrInvalidTransition, t.Status)
		}
		t.Status = StatusPaused
		return nil
	})
}

// CompleteTest moves an Active or Paused test to Completed and stamps the
// end date. Completed is terminal.
func (m *Manager) CompleteTest(ctx context.Context, testID string) error {
	return m.transition(ctx, testID, func(t *Test) error {
		if t.Status != StatusActive && t.Status != StatusPaused {
			return fmt.Errorf("%w: cannot complete a %s test", ErrInvalidTransition, t.Status)
		}
		t.Status = StatusCompleted
		t.EndDate = time.Now().UTC()
		return nil
	})
}

// transition applies fn to a stored test and persists the result.
func (m *Manager) transition(ctx context.Context, testID string, fn func(*Test) error) error {
	t, err := m.store.GetTest(ctx, testID)
	if err != nil {
		return err
	}
	if err := fn(&t); err != nil {
		return err
	}
	if err := m.store.PutTest(ctx, t); err != nil {
		return fmt.Errorf("persist transition: %w", err)
	}
	m.logger.Info(ctx, "test transitioned",
		logger.String("test_id", testID),
		logger.String("status", string(t.Status)),
	)
	return nil
}

// GetTest returns a test by id.
func (m *Manager) GetTest(ctx context.Context, testID string) (Test, error) {
	return m.store.GetTest(ctx, testID)
}

// ListTests returns all tests, newest first.
func (m *Manager) ListTests(ctx context.Context) ([]Test, error) {
	tests, err := m.store.ListTests(ctx)
	if err != nil {
		return nil, err
	}
	sortTests(tests)
	return tests, nil
}

// ActiveTests returns all currently active tests.
func (m *Manager) ActiveTests(ctx context.Context) ([]Test, error) {
	tests, err := m.store.ListTests(ctx)
	if err != nil {
		return nil, err
	}
	var active []Test
	for _, t := range tests {
		if t.Status == StatusActive {
			active = append(active, t)
		}
	}
	return active, nil
}

// AssignVariant returns the sticky variant for (userID, testID), creating
// one by weighted random bucketing on first contact. Returns "" when the
// test does not exist or is not Active. The new assignment is persisted
// before it is returned.
func (m *Manager) AssignVariant(ctx context.Context, userID, testID string) (string, error) {
	t, err := m.store.GetTest(ctx, testID)
	if err != nil {
		return "", nil //nolint:nilerr // unknown test yields no assignment, not an error
	}
	if t.Status != StatusActive {
		return "", nil
	}

	m.assignMu.Lock()
	defer m.assignMu.Unlock()

	if variantID, ok, err := m.store.Assignment(ctx, userID, testID); err != nil {
		return "", err
	} else if ok {
		return variantID, nil
	}

	// Weighted bucketing: walk variants in list order accumulating traffic
	// share; the first whose cumulative share reaches the draw wins.
	draw := m.rng.Float64() * totalTrafficPercent
	variantID := ""
	cumulative := 0.0
	for _, v := range t.Variants {
		cumulative += v.TrafficPercent
		if draw <= cumulative {
			variantID = v.ID
			break
		}
	}
	if variantID == "" {
		// Rounding left a residual gap past the last share.
		variantID = t.Variants[0].ID
	}

	if err := m.store.PutAssignment(ctx, userID, testID, variantID); err != nil {
		return "", fmt.Errorf("persist assignment: %w", err)
	}
	metrics.RecordAssignment()
	return variantID, nil
}

// VariantConfig resolves the configuration payload of the user's assigned
// variant. ok is false when no assignment applies.
func (m *Manager) VariantConfig(ctx context.Context, userID, testID string) (map[string]float64, bool, error) {
	variantID, err := m.AssignVariant(ctx, userID, testID)
	if err != nil || variantID == "" {
		return nil, false, err
	}
	t, err := m.store.GetTest(ctx, testID)
	if err != nil {
		return nil, false, err
	}
	v, ok := t.Variant(variantID)
	if !ok {
		return nil, false, nil
	}
	return v.Config, true, nil
}

// RecordObservation appends a metric observation unconditionally: trailing
// data is accepted even after a test pauses or completes.
func (m *Manager) RecordObservation(ctx context.Context, obs model.Observation) error {
	if obs.TS.IsZero() {
		obs.TS = time.Now().UTC()
	}
	if err := m.store.AppendObservation(ctx, obs); err != nil {
		return fmt.Errorf("record observation: %w", err)
	}
	metrics.RecordObservation()
	return nil
}
