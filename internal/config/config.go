// Package config defines service configuration structures and loading hooks.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SolverTimeoutMS bounds one optimization request, quota sub-solves
	// included. Zero disables the bound.
	SolverTimeoutMS int `koanf:"solver_timeout_ms"`

	// SolverMaxNodes caps branch-and-bound nodes per solve. Zero is unlimited.
	SolverMaxNodes int `koanf:"solver_max_nodes"`

	// JobQueueSize bounds the asynchronous job queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// DedupeSize bounds the idempotency key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// JobHistorySize bounds how many finished jobs are kept for lookup.
	JobHistorySize int `koanf:"job_history_size"`

	// FeasibilityDPThreshold is the pool size above which the quota
	// pre-check switches to its subset-sum table.
	FeasibilityDPThreshold int `koanf:"feasibility_dp_threshold"`

	// DefaultTeamSize and DefaultMinWomen fill requests that omit them.
	DefaultTeamSize int `koanf:"default_team_size"`
	DefaultMinWomen int `koanf:"default_min_women"`

	// DatasetPath optionally preloads a dataset file at start.
	DatasetPath string `koanf:"dataset_path"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		SolverTimeoutMS:        30_000,
		SolverMaxNodes:         200_000,
		JobQueueSize:           64,
		DedupeSize:             10_000,
		JobHistorySize:         1_000,
		FeasibilityDPThreshold: 24,
		DefaultTeamSize:        4,
		DefaultMinWomen:        1,
		ShutdownTimeoutMS:      5_000,
	}
}

// SolverTimeout returns SolverTimeoutMS as a duration.
func (c *Config) SolverTimeout() time.Duration {
	return time.Duration(c.SolverTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr", "must not be empty")
	case c.LogFormat != "text" && c.LogFormat != "json":
		return invalid("log_format", "must be text or json, got %q", c.LogFormat)
	case c.SolverTimeoutMS < 0:
		return invalid("solver_timeout_ms", "must not be negative")
	case c.SolverMaxNodes < 0:
		return invalid("solver_max_nodes", "must not be negative")
	case c.JobQueueSize <= 0:
		return invalid("job_queue_size", "must be positive")
	case c.JobHistorySize <= 0:
		return invalid("job_history_size", "must be positive")
	case c.DefaultTeamSize < 2:
		return invalid("default_team_size", "must be at least 2")
	case c.DefaultMinWomen < 1 || c.DefaultMinWomen > c.DefaultTeamSize:
		return invalid("default_min_women", "must be between 1 and default_team_size")
	case c.ShutdownTimeoutMS <= 0:
		return invalid("shutdown_timeout_ms", "must be positive")
	}
	return nil
}
