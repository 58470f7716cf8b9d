// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/relay/internal/app"
	"github.com/okian/relay/internal/domain/assign"
	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/internal/domain/quota"
	"github.com/okian/relay/internal/domain/roster"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LoadDataset(ctx context.Context, doc roster.Document) (roster.Snapshot, error)
	Dataset(ctx context.Context) (roster.Snapshot, error)

	// Optimize runs synchronously and returns the report or a terminal error.
	Optimize(ctx context.Context, req model.Request) (*model.Report, error)

	// Submit queues req; duplicate is true when key was already used.
	Submit(ctx context.Context, key string, req model.Request) (job model.Job, duplicate bool, err error)
	Job(ctx context.Context, id string) (model.Job, error)
	RecentJobs(ctx context.Context, n int) ([]model.Job, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	datasetHandler  *DatasetHandler
	optimizeHandler *OptimizeHandler
	jobsHandler     *JobsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		datasetHandler:  NewDatasetHandler(deps),
		optimizeHandler: NewOptimizeHandler(deps),
		jobsHandler:     NewJobsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /v1/dataset", MetricsMiddleware(s.datasetHandler.HandlePut, "dataset"))
	mux.HandleFunc("GET /v1/dataset", MetricsMiddleware(s.datasetHandler.HandleGet, "dataset"))
	mux.HandleFunc("POST /v1/optimize", MetricsMiddleware(s.optimizeHandler.HandleOptimize, "optimize"))
	mux.HandleFunc("POST /v1/jobs", MetricsMiddleware(s.jobsHandler.HandleSubmit, "jobs"))
	mux.HandleFunc("GET /v1/jobs", MetricsMiddleware(s.jobsHandler.HandleList, "jobs"))
	mux.HandleFunc("GET /v1/jobs/{id}", MetricsMiddleware(s.jobsHandler.HandleGet, "job"))
}

type errorResponse struct {
	Code       string             `json:"code"`
	Message    string             `json:"message"`
	Category   string             `json:"category,omitempty"`
	Violations []roster.Violation `json:"violations,omitempty"`
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

// writeServiceError translates a service error into its HTTP status and
// body. Solver outcomes use the same messages as the CLI.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		verr  *roster.ValidationError
		abort *quota.AbortError
	)
	resp := errorResponse{Message: service.StatusMessage(err)}
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status, resp.Code, resp.Violations = http.StatusUnprocessableEntity, "invalid_dataset", verr.Violations
	case errors.Is(err, roster.ErrMalformedInput), errors.Is(err, roster.ErrUnsupportedFormat):
		status, resp.Code, resp.Message = http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, service.ErrInvalidRequest):
		status, resp.Code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, roster.ErrNoDataset):
		status, resp.Code = http.StatusConflict, "no_dataset"
	case errors.Is(err, assign.ErrSolverTimeout):
		status, resp.Code = http.StatusGatewayTimeout, "solver_timeout"
	case errors.As(err, &abort):
		status, resp.Code, resp.Category = http.StatusConflict, "quota_aborted", abort.Category
	case errors.Is(err, assign.ErrNonOptimal):
		status, resp.Code = http.StatusUnprocessableEntity, "non_optimal"
	case errors.Is(err, assign.ErrEmptyAssignment):
		status, resp.Code = http.StatusUnprocessableEntity, "empty_assignment"
	case errors.Is(err, service.ErrBusy), errors.Is(err, service.ErrQueueFull):
		status, resp.Code, resp.Message = http.StatusTooManyRequests, "backpressure", err.Error()
	case errors.Is(err, service.ErrJobNotFound):
		status, resp.Code, resp.Message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, service.ErrNotStarted):
		status, resp.Code, resp.Message = http.StatusServiceUnavailable, "unavailable", err.Error()
	default:
		resp.Code = "internal"
	}
	writeJSON(w, status, resp)
}
