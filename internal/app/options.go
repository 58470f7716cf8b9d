package service

import (
	"time"

	"github.com/okian/relay/internal/adapters/milp"
	"github.com/okian/relay/internal/adapters/repository"
	"github.com/okian/relay/internal/config"
	"github.com/okian/relay/internal/domain/feasibility"
	"github.com/okian/relay/internal/domain/roster"
	"github.com/okian/relay/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngine replaces the optimization engine.
func WithEngine(e milp.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithMaxNodes caps branch-and-bound nodes for the default engine.
func WithMaxNodes(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxNodes = n
		}
	}
}

// WithChecker replaces the quota feasibility checker.
func WithChecker(c *feasibility.Checker) Option {
	return func(s *Service) {
		if c != nil {
			s.checker = c
		}
	}
}

// WithDatasetStore replaces the dataset store.
func WithDatasetStore(st roster.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.datasets = st
		}
	}
}

// WithJobStore replaces the job store.
func WithJobStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.jobs = st
		}
	}
}

// WithSolverTimeout bounds every optimization. Zero disables the bound.
func WithSolverTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.solverTimeout = d
		}
	}
}

// WithQueueSize sets the maximum number of waiting jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithJobHistorySize sets how many jobs the default job store keeps.
func WithJobHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithDefaults sets the team size and minimum women used when a request
// leaves them at zero.
func WithDefaults(teamSize, minWomen int) Option {
	return func(s *Service) {
		if teamSize > 0 {
			s.defaultTeamSize = teamSize
		}
		if minWomen > 0 {
			s.defaultMinWomen = minWomen
		}
	}
}

// FromConfig maps process configuration onto service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithSolverTimeout(cfg.SolverTimeout()),
		WithMaxNodes(cfg.SolverMaxNodes),
		WithChecker(feasibility.NewChecker(feasibility.WithDPThreshold(cfg.FeasibilityDPThreshold))),
		WithQueueSize(cfg.JobQueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithJobHistorySize(cfg.JobHistorySize),
		WithDefaults(cfg.DefaultTeamSize, cfg.DefaultMinWomen),
	}
}
