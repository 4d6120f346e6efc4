// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// FeedbackHandler handles feedback and retrain requests.
type FeedbackHandler struct {
	deps Dependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps Dependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

// HandleFeedback handles POST /feedback requests.
func (h *FeedbackHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.feedback"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	h.deps.SubmitFeedback(r.Context(), req.Text, req.Predicted, req.Correct, req.UserID)
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandleRetrain handles POST /retrain requests.
func (h *FeedbackHandler) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.retrain"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	result, err := h.deps.Retrain(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
