// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/okian/relay/internal/adapters/milp"
	jobqueue "github.com/okian/relay/internal/adapters/mq/queue"
	jobworker "github.com/okian/relay/internal/adapters/mq/worker"
	"github.com/okian/relay/internal/adapters/repository"
	"github.com/okian/relay/internal/domain/dedupe"
	"github.com/okian/relay/internal/domain/feasibility"
	"github.com/okian/relay/internal/domain/quota"
	"github.com/okian/relay/internal/domain/roster"
	"github.com/okian/relay/pkg/logger"
	"github.com/okian/relay/pkg/metrics"
)

// Service runs relay optimizations over the current dataset, either inline
// or through the job queue. At most one optimization runs at a time.
type Service struct {
	mu sync.RWMutex

	// Core components
	datasets  roster.Store
	engine    milp.Engine
	checker   *feasibility.Checker
	sequencer *quota.Sequencer
	slot      *semaphore.Weighted

	// Async jobs
	jobs    repository.Store
	deduper dedupe.Deduper
	queue   *jobqueue.InMemoryQueue
	worker  *jobworker.InMemoryWorker
	cancel  context.CancelFunc

	// Configuration
	solverTimeout   time.Duration
	maxNodes        int
	queueSize       int
	dedupeSize      int
	historySize     int
	defaultTeamSize int
	defaultMinWomen int

	// State
	started       bool
	running       atomic.Bool
	optimizations atomic.Int64
	failures      atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Components not supplied through options get
// in-memory defaults.
func New(opts ...Option) *Service {
	s := &Service{
		slot:            semaphore.NewWeighted(1),
		solverTimeout:   30 * time.Second,
		maxNodes:        200_000,
		queueSize:       64,
		dedupeSize:      10_000,
		historySize:     1_000,
		defaultTeamSize: 4,
		defaultMinWomen: 1,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.datasets == nil {
		s.datasets = roster.NewMemoryStore()
	}
	if s.engine == nil {
		s.engine = milp.NewBranchAndBound(milp.WithMaxNodes(s.maxNodes))
	}
	if s.checker == nil {
		s.checker = feasibility.NewChecker()
	}
	if s.jobs == nil {
		s.jobs = repository.NewMemoryStore(repository.WithHistorySize(s.historySize))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.sequencer = quota.NewSequencer(s.engine,
		quota.WithChecker(s.checker),
		quota.WithLogger(s.logger.Named("quota")),
	)
	return s
}

// Start launches the job worker. Inline optimizations do not need it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.worker = jobworker.NewInMemoryWorker(s.queue, s, s.jobs,
		jobworker.WithName("optimizer"),
		jobworker.WithLogger(s.logger),
		jobworker.WithMessage(StatusMessage),
	)

	// The worker outlives the caller's request scope; Stop ends it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "relay service started",
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Duration("solver_timeout", s.solverTimeout),
	)
	return nil
}

// Stop closes the job queue and waits for the job in flight. When ctx ends
// first, the job in flight is cancelled.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping relay service...")

	_ = s.queue.Close()
	err := s.worker.Shutdown(ctx)
	s.cancel()
	if err != nil {
		<-s.worker.Done()
	}

	s.started = false
	s.logger.Info(ctx, "relay service stopped")
	return err
}

// LoadDataset validates doc and makes it the current dataset.
func (s *Service) LoadDataset(ctx context.Context, doc roster.Document) (roster.Snapshot, error) {
	ds, err := roster.Validate(doc)
	if err != nil {
		metrics.RecordValidationFailure()
		s.logger.Warn(ctx, "dataset rejected", logger.Error(err))
		return roster.Snapshot{}, err
	}
	snap, err := s.datasets.Put(ctx, ds)
	if err != nil {
		return roster.Snapshot{}, fmt.Errorf("store dataset: %w", err)
	}
	metrics.UpdateDatasetSize(len(ds.Swimmers), len(ds.Categories))
	s.logger.Info(ctx, "dataset loaded",
		logger.String("version", snap.Version),
		logger.Int("swimmers", len(ds.Swimmers)),
		logger.Int("categories", len(ds.Categories)),
	)
	return snap, nil
}

// Dataset returns the current dataset snapshot.
func (s *Service) Dataset(ctx context.Context) (roster.Snapshot, error) {
	return s.datasets.Current(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"busy":          s.running.Load(),
		"optimizations": s.optimizations.Load(),
		"failures":      s.failures.Load(),
		"queueSize":     s.queueSize,
		"jobs":          s.jobs.Count(ctx),
		"dedupeKeys":    s.deduper.Size(),
		"solverTimeout": s.solverTimeout.String(),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
	}
	if snap, err := s.datasets.Current(ctx); err == nil {
		stats["datasetVersion"] = snap.Version
		stats["swimmers"] = len(snap.Dataset.Swimmers)
		stats["categories"] = len(snap.Dataset.Categories)
	}
	return stats
}
