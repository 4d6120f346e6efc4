// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/skillsift/internal/domain/fusion"
)

// ExtractHandler handles skill extraction requests.
type ExtractHandler struct {
	deps Dependencies
}

// NewExtractHandler creates a new extract handler.
func NewExtractHandler(deps Dependencies) *ExtractHandler {
	return &ExtractHandler{deps: deps}
}

// HandleExtract handles POST /extract requests.
func (h *ExtractHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	const op = "api.extract"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.Extract(r.Context(), req.Text, req.UserID)
	if err != nil {
		if errors.Is(err, fusion.ErrNoBackend) {
			writeError(w, http.StatusServiceUnavailable, "no_backend", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
