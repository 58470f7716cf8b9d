package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/relay/internal/domain/model"
)

// OptimizeHandler runs optimizations inline.
type OptimizeHandler struct {
	deps Dependencies
}

// NewOptimizeHandler creates a new optimize handler.
func NewOptimizeHandler(deps Dependencies) *OptimizeHandler {
	return &OptimizeHandler{deps: deps}
}

// HandleOptimize handles POST /v1/optimize.
func (h *OptimizeHandler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.Optimize(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (model.Request, error) {
	var req model.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.Request{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return req, nil
}
