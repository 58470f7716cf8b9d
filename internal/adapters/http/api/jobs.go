package api

import (
	"net/http"
	"strconv"

	"github.com/okian/relay/internal/domain/model"
)

const (
	idempotencyHeader = "Idempotency-Key"
	defaultJobLimit   = 20
)

// JobsHandler accepts and reports asynchronous optimizations.
type JobsHandler struct {
	deps Dependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps Dependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

type jobResponse struct {
	model.Job
	Duplicate bool `json:"duplicate"`
}

// HandleSubmit handles POST /v1/jobs. A repeated Idempotency-Key returns the
// original job with 200 instead of 202.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	job, dup, err := h.deps.Submit(r.Context(), r.Header.Get(idempotencyHeader), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/jobs/"+job.ID)
	status := http.StatusAccepted
	if dup {
		status = http.StatusOK
	}
	writeJSON(w, status, jobResponse{Job: job, Duplicate: dup})
}

// HandleGet handles GET /v1/jobs/{id}.
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{Job: job})
}

// HandleList handles GET /v1/jobs?limit=n, newest first.
func (h *JobsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidLimit)
			return
		}
		limit = n
	}
	jobs, err := h.deps.RecentJobs(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}
