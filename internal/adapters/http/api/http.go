// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/skillsift/internal/app"
	"github.com/okian/skillsift/internal/domain/feedback"
	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/internal/experiment"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Extraction and feedback.
	Extract(ctx context.Context, text, userID string) (service.ExtractResult, error)
	SubmitFeedback(ctx context.Context, text string, predicted, correct []string, userID string)
	Retrain(ctx context.Context) (feedback.RetrainResult, error)

	// Experiment lifecycle.
	CreateTest(ctx context.Context, in experiment.CreateTestInput) (experiment.Test, error)
	StartTest(ctx context.Context, testID string) error
	PauseTest(ctx context.Context, testID string) error
	CompleteTest(ctx context.Context, testID string) error
	GetTest(ctx context.Context, testID string) (experiment.Test, error)
	ListTests(ctx context.Context) ([]experiment.Test, error)
	Results(ctx context.Context, testID string) (experiment.Results, error)

	// Observation ingest. Returns accepted=false on backpressure.
	SubmitObservation(ctx context.Context, obs model.Observation) (accepted, duplicate bool)
}

// Server wires HTTP routes for the business API.
type Server struct {
	extractHandler  *ExtractHandler
	feedbackHandler *FeedbackHandler
	testsHandler    *TestsHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		extractHandler:  NewExtractHandler(deps),
		feedbackHandler: NewFeedbackHandler(deps),
		testsHandler:    NewTestsHandler(deps),
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/extract", MetricsMiddleware(s.extractHandler.HandleExtract, "extract"))
	mux.HandleFunc("/feedback", MetricsMiddleware(s.feedbackHandler.HandleFeedback, "feedback"))
	mux.HandleFunc("/retrain", MetricsMiddleware(s.feedbackHandler.HandleRetrain, "retrain"))
	mux.HandleFunc("/tests", MetricsMiddleware(s.testsHandler.HandleTests, "tests"))
	mux.HandleFunc("/tests/", MetricsMiddleware(s.testsHandler.HandleTestByID, "tests"))
}

// extractRequest mirrors the request schema for POST /extract.
type extractRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

func (e extractRequest) validate() error {
	if strings.TrimSpace(e.Text) == "" {
		return errors.New("missing text")
	}
	return nil
}

// feedbackRequest mirrors the request schema for POST /feedback.
type feedbackRequest struct {
	Text      string   `json:"text"`
	Predicted []string `json:"predicted_skills"`
	Correct   []string `json:"correct_skills"`
	UserID    string   `json:"user_id"`
}

func (f feedbackRequest) validate() error {
	if strings.TrimSpace(f.Text) == "" {
		return errors.New("missing text")
	}
	return nil
}

// createTestRequest mirrors the request schema for POST /tests.
type createTestRequest struct {
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Variants          []experiment.Variant `json:"variants"`
	DurationDays      int                  `json:"duration_days"`
	TargetMetric      string               `json:"target_metric"`
	MinimumSampleSize int                  `json:"minimum_sample_size"`
	ConfidenceLevel   float64              `json:"confidence_level"`
	Power             float64              `json:"power"`
	CreatedBy         string               `json:"created_by"`
}

func (c createTestRequest) validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return errors.New("missing name")
	case len(c.Variants) == 0:
		return errors.New("missing variants")
	}
	for _, v := range c.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return errors.New("variant missing name")
		}
		if v.TrafficPercent < 0 {
			return errors.New("variant traffic must not be negative")
		}
	}
	return nil
}

func (c createTestRequest) toInput() experiment.CreateTestInput {
	return experiment.CreateTestInput{
		Name:              c.Name,
		Description:       c.Description,
		Variants:          c.Variants,
		Duration:          time.Duration(c.DurationDays) * 24 * time.Hour,
		TargetMetric:      c.TargetMetric,
		MinimumSampleSize: c.MinimumSampleSize,
		ConfidenceLevel:   c.ConfidenceLevel,
		Power:             c.Power,
		CreatedBy:         c.CreatedBy,
	}
}

// observationRequest mirrors the request schema for POST /tests/{id}/observations.
type observationRequest struct {
	ObservationID string        `json:"observation_id"`
	VariantID     string        `json:"variant_id"`
	Metrics       model.Metrics `json:"metrics"`
	TS            string        `json:"ts"`
}

func (o observationRequest) validate() error {
	switch {
	case strings.TrimSpace(o.ObservationID) == "":
		return errors.New("missing observation_id")
	case strings.TrimSpace(o.VariantID) == "":
		return errors.New("missing variant_id")
	}
	if o.TS != "" {
		if _, err := time.Parse(time.RFC3339, o.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, experiment.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, experiment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", Wrap(op, err))
	case errors.Is(err, experiment.ErrTrafficSplit),
		errors.Is(err, experiment.ErrControlCount),
		errors.Is(err, experiment.ErrNoVariants),
		errors.Is(err, experiment.ErrDuplicateVariant):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
