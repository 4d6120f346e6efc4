package model

import "time"

// Metrics is one outcome observation for an experiment variant.
// Append-only; one list is kept per (test, variant) pair.
type Metrics struct {
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	F1Score          float64 `json:"f1_score"`
	ExtractionTime   float64 `json:"extraction_time"`
	UserSatisfaction float64 `json:"user_satisfaction"`
	TotalExtractions int     `json:"total_extractions"`
}

// Observation wraps Metrics with routing identity for async recording.
// ObservationID provides idempotency across retried submissions.
type Observation struct {
	ObservationID string    `json:"observation_id"`
	TestID        string    `json:"test_id"`
	VariantID     string    `json:"variant_id"`
	Metrics       Metrics   `json:"metrics"`
	TS            time.Time `json:"ts"`
}
