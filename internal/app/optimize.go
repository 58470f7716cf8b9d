package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/relay/internal/domain/assign"
	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/internal/domain/quota"
	"github.com/okian/relay/internal/domain/roster"
	"github.com/okian/relay/pkg/logger"
	"github.com/okian/relay/pkg/metrics"
)

const msgOptimal = "optimal solution found"

// Optimize runs req against the current dataset. It waits for the running
// optimization, if any, until ctx ends; the wait does not count toward the
// solver timeout.
func (s *Service) Optimize(ctx context.Context, req model.Request) (*model.Report, error) {
	start := time.Now()

	snap, err := s.datasets.Current(ctx)
	if err != nil {
		s.record(req.Mode, err, start, 0)
		return nil, err
	}
	req, err = s.normalize(req, snap.Dataset.Categories)
	if err != nil {
		s.record(req.Mode, err, start, 0)
		return nil, err
	}

	if err := s.slot.Acquire(ctx, 1); err != nil {
		err = fmt.Errorf("%w: %w", ErrBusy, err)
		s.record(req.Mode, err, start, 0)
		return nil, err
	}
	defer s.slot.Release(1)
	s.running.Store(true)
	defer s.running.Store(false)

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	if s.solverTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.solverTimeout)
		defer cancel()
	}

	s.logger.Info(ctx, "optimization started",
		logger.String("mode", string(req.Mode)),
		logger.Int("team_size", req.TeamSize),
		logger.Int("min_women", req.MinWomen),
		logger.Int("swimmers", len(snap.Dataset.Swimmers)),
		logger.String("dataset", snap.Version),
	)

	report, err := s.solve(ctx, snap.Dataset, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, assign.ErrSolverTimeout) {
			err = fmt.Errorf("%w: %w", assign.ErrSolverTimeout, err)
		}
		s.record(req.Mode, err, start, 0)
		s.logger.Warn(ctx, "optimization failed",
			logger.String("mode", string(req.Mode)),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err),
		)
		return nil, err
	}

	report.RunID = runID
	report.Mode = req.Mode
	report.DatasetVersion = snap.Version
	report.Rows = model.Rows(report.Teams)
	report.Summary = model.Summarize(report.Teams, len(snap.Dataset.Swimmers))
	report.Duration = time.Since(start)

	s.record(req.Mode, nil, start, report.Nodes)
	metrics.RecordTeams(string(req.Mode), len(report.Teams), len(report.Unassigned))
	s.logger.Info(ctx, "optimization finished",
		logger.String("mode", string(req.Mode)),
		logger.Int("teams", len(report.Teams)),
		logger.Int("unassigned", len(report.Unassigned)),
		logger.Float64("objective", report.Objective),
		logger.Duration("elapsed", report.Duration),
	)
	return report, nil
}

// solve dispatches on the mode. The dataset is a private copy.
func (s *Service) solve(ctx context.Context, ds roster.Dataset, req model.Request) (*model.Report, error) {
	if req.Mode == model.ModeQuota {
		out, err := s.sequencer.Run(ctx, ds.Swimmers, ds.Categories, quota.Request{
			TeamSize: req.TeamSize,
			MinWomen: req.MinWomen,
			Quotas:   req.Quotas,
		})
		if err != nil {
			return nil, err
		}
		report := &model.Report{
			Message:    msgOptimal,
			Teams:      out.Teams,
			Unassigned: out.Unassigned,
			QuotaBuilt: out.Built,
		}
		for _, t := range out.Teams {
			report.Objective += t.TimeSum
		}
		if out.OverflowErr != nil {
			report.Warnings = append(report.Warnings, "overflow teams: "+StatusMessage(out.OverflowErr))
		}
		return report, nil
	}

	res, err := assign.Solve(ctx, s.engine, assign.Instance{
		Pool:     ds.Swimmers,
		Bounds:   assign.TableBounds{Categories: ds.Categories},
		Teams:    assign.DerivedTeams(),
		TeamSize: req.TeamSize,
		MinWomen: req.MinWomen,
		Mode:     req.Mode,
	})
	if err != nil {
		return nil, err
	}
	report := &model.Report{
		Message:   msgOptimal,
		Teams:     res.Teams,
		Objective: res.Objective,
		Nodes:     res.Nodes,
	}
	assigned := res.Assigned()
	for i, sw := range ds.Swimmers {
		if !assigned[i] {
			report.Unassigned = append(report.Unassigned, sw)
		}
	}
	return report, nil
}

// normalize fills defaults and rejects requests no dataset could satisfy.
func (s *Service) normalize(req model.Request, table []model.Category) (model.Request, error) {
	if req.Mode == "" {
		return req, fmt.Errorf("%w: mode is required", ErrInvalidRequest)
	}
	mode, err := model.ParseMode(string(req.Mode))
	if err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.Mode = mode
	if req.TeamSize == 0 {
		req.TeamSize = s.defaultTeamSize
	}
	if req.MinWomen == 0 {
		req.MinWomen = min(s.defaultMinWomen, req.TeamSize)
	}

	switch {
	case req.TeamSize < 2:
		return req, fmt.Errorf("%w: team size must be at least 2, got %d", ErrInvalidRequest, req.TeamSize)
	case req.MinWomen < 1 || req.MinWomen > req.TeamSize:
		return req, fmt.Errorf("%w: minimum women must be between 1 and %d, got %d", ErrInvalidRequest, req.TeamSize, req.MinWomen)
	}

	if req.Mode != model.ModeQuota {
		req.Quotas = nil
		return req, nil
	}
	positive := 0
	for name, n := range req.Quotas {
		if _, ok := model.FindCategory(table, name); !ok {
			return req, fmt.Errorf("%w: %w: %q", ErrInvalidRequest, quota.ErrUnknownCategory, name)
		}
		if n < 0 {
			return req, fmt.Errorf("%w: %w: %q requests %d teams", ErrInvalidRequest, quota.ErrInvalidQuota, name, n)
		}
		if n > 0 {
			positive++
		}
	}
	if positive == 0 {
		return req, fmt.Errorf("%w: quota mode needs at least one positive quota", ErrInvalidRequest)
	}
	return req, nil
}

func (s *Service) record(mode model.Mode, err error, start time.Time, nodes int) {
	s.optimizations.Add(1)
	if err != nil {
		s.failures.Add(1)
	}
	label := "unknown"
	if m, perr := model.ParseMode(string(mode)); perr == nil {
		label = string(m)
	}
	metrics.RecordOptimization(label, StatusLabel(err), float64(time.Since(start).Milliseconds()), nodes)
}

// StatusMessage returns the user-facing message for an optimization outcome.
func StatusMessage(err error) string {
	var abort *quota.AbortError
	var invalid *roster.ValidationError
	switch {
	case err == nil:
		return msgOptimal
	case errors.Is(err, ErrBusy):
		return "optimizer is busy"
	case errors.Is(err, assign.ErrSolverTimeout):
		return "solver timed out"
	case errors.As(err, &abort):
		return abort.Error()
	case errors.Is(err, assign.ErrEmptyAssignment):
		return "teams could not be formed"
	case errors.Is(err, assign.ErrNonOptimal):
		return "no optimal solution"
	case errors.As(err, &invalid):
		return invalid.Error()
	case errors.Is(err, roster.ErrNoDataset):
		return "no dataset loaded"
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, assign.ErrInvalidInstance):
		return err.Error()
	default:
		return "optimization failed"
	}
}

// StatusLabel returns the metrics label for an optimization outcome.
func StatusLabel(err error) string {
	var abort *quota.AbortError
	switch {
	case err == nil:
		return "optimal"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, assign.ErrSolverTimeout):
		return "timeout"
	case errors.As(err, &abort):
		return "quota_aborted"
	case errors.Is(err, assign.ErrEmptyAssignment):
		return "empty"
	case errors.Is(err, assign.ErrNonOptimal):
		return "non_optimal"
	case errors.Is(err, roster.ErrNoDataset):
		return "no_dataset"
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, assign.ErrInvalidInstance):
		return "invalid"
	default:
		return "error"
	}
}
