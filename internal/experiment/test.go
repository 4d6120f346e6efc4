// Package experiment manages A/B tests over extractor configuration:
// lifecycle, sticky variant assignment, outcome metrics, and comparative
// results.
package experiment

import "time"

// Status is the lifecycle state of a test.
type Status string

// Lifecycle states. Transitions are one-directional: Draft -> Active ->
// Paused -> Completed. Pausing has no resume; only Active or Paused tests
// can complete.
const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Variant is one configuration arm of a test. Config carries ensemble
// override keys applied to the fusion engine for assigned users.
type Variant struct {
	ID             string             `json:"variant_id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Config         map[string]float64 `json:"config"`
	TrafficPercent float64            `json:"traffic_percentage"`
	IsControl      bool               `json:"is_control"`
}

// Test is an A/B test definition and its lifecycle state. Created once;
// status transitions are the only mutation, plus the end date rewritten on
// completion.
type Test struct {
	ID                string    `json:"test_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Variants          []Variant `json:"variants"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	Status            Status    `json:"status"`
	TargetMetric      string    `json:"target_metric"`
	MinimumSampleSize int       `json:"minimum_sample_size"`
	ConfidenceLevel   float64   `json:"confidence_level"`
	Power             float64   `json:"power"`
	CreatedBy         string    `json:"created_by"`
}

// Variant returns the variant with the given id, if present.
func (t Test) Variant(id string) (Variant, bool) {
	for _, v := range t.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Control returns the control variant. Validation guarantees exactly one
// exists on any stored test.
func (t Test) Control() (Variant, bool) {
	for _, v := range t.Variants {
		if v.IsControl {
			return v, true
		}
	}
	return Variant{}, false
}
