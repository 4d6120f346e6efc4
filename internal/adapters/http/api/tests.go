// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/okian/skillsift/internal/domain/model"
)

// TestsHandler handles the A/B test lifecycle endpoints.
type TestsHandler struct {
	deps Dependencies
}

// NewTestsHandler creates a new tests handler.
func NewTestsHandler(deps Dependencies) *TestsHandler {
	return &TestsHandler{deps: deps}
}

// HandleTests handles POST /tests and GET /tests requests.
func (h *TestsHandler) HandleTests(w http.ResponseWriter, r *http.Request) {
	const op = "api.tests"
	switch r.Method {
	case http.MethodPost:
		var req createTestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		test, err := h.deps.CreateTest(r.Context(), req.toInput())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, test)
	case http.MethodGet:
		tests, err := h.deps.ListTests(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, tests)
	default:
		http.NotFound(w, r)
	}
}

// HandleTestByID routes /tests/{id} and its sub-resources:
//
//	GET  /tests/{id}
//	POST /tests/{id}/start
//	POST /tests/{id}/pause
//	POST /tests/{id}/complete
//	POST /tests/{id}/observations
//	GET  /tests/{id}/results
func (h *TestsHandler) HandleTestByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.test_by_id"

	path := strings.TrimPrefix(r.URL.Path, "/tests/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	testID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		test, err := h.deps.GetTest(r.Context(), testID)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, test)
		return
	}

	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch parts[1] {
	case "start", "pause", "complete":
		h.handleTransition(w, r, testID, parts[1])
	case "observations":
		h.handleObservation(w, r, testID)
	case "results":
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		results, err := h.deps.Results(r.Context(), testID)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	default:
		http.NotFound(w, r)
	}
}

func (h *TestsHandler) handleTransition(w http.ResponseWriter, r *http.Request, testID, action string) {
	const op = "api.test_transition"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var err error
	switch action {
	case "start":
		err = h.deps.StartTest(r.Context(), testID)
	case "pause":
		err = h.deps.PauseTest(r.Context(), testID)
	case "complete":
		err = h.deps.CompleteTest(r.Context(), testID)
	}
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	test, err := h.deps.GetTest(r.Context(), testID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (h *TestsHandler) handleObservation(w http.ResponseWriter, r *http.Request, testID string) {
	const op = "api.post_observation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req observationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// The test must exist; recording against unknown tests is a 404.
	if _, err := h.deps.GetTest(r.Context(), testID); err != nil {
		writeDomainError(w, op, err)
		return
	}

	ts := time.Now().UTC()
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}
	obs := model.Observation{
		ObservationID: req.ObservationID,
		TestID:        testID,
		VariantID:     req.VariantID,
		Metrics:       req.Metrics,
		TS:            ts,
	}

	accepted, duplicate := h.deps.SubmitObservation(r.Context(), obs)
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	if !accepted {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
