// Package worker runs queued optimization jobs one at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/pkg/logger"
	"github.com/okian/relay/pkg/metrics"
)

// Runner performs one optimization.
type Runner interface {
	Optimize(ctx context.Context, req model.Request) (*model.Report, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req model.Request) (*model.Report, error)

// Optimize calls f.
func (f RunnerFunc) Optimize(ctx context.Context, req model.Request) (*model.Report, error) {
	return f(ctx, req)
}

// Store records job state transitions.
type Store interface {
	Put(ctx context.Context, job model.Job) error
}

// Queue defines how the worker receives jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run blocks until ctx is cancelled, the queue is closed or Shutdown
	// is called.
	Run(ctx context.Context)

	// Shutdown stops the loop after the job in flight, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker is the single consumer of the job queue.
type InMemoryWorker struct {
	queue   Queue
	runner  Runner
	store   Store
	name    string
	message func(error) string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(queue Queue, runner Runner, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		runner:   runner,
		store:    store,
		name:     "worker",
		message:  func(err error) string { return err.Error() },
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process moves one job from queued to a terminal state.
func (w *InMemoryWorker) process(ctx context.Context, job model.Job) { //nolint:gocritic // hugeParam: jobs travel by value
	metrics.UpdateWorkerBusy(true)
	defer metrics.UpdateWorkerBusy(false)

	job.State = model.JobRunning
	job.StartedAt = time.Now()
	if err := w.store.Put(ctx, job); err != nil {
		w.logger.Error(ctx, "failed to mark job running", logger.String("job_id", job.ID), logger.Error(err))
	}

	report, err := w.runner.Optimize(ctx, job.Request)
	job.FinishedAt = time.Now()
	if err != nil {
		job.State = model.JobFailed
		job.Error = err.Error()
		job.Message = w.message(err)
		metrics.RecordErrorByComponent("worker", "optimize")
		w.logger.Warn(ctx, "job failed",
			logger.String("job_id", job.ID),
			logger.Duration("elapsed", job.FinishedAt.Sub(job.StartedAt)),
			logger.Error(err),
		)
	} else {
		job.State = model.JobSucceeded
		job.Report = report
		job.Message = report.Message
		w.logger.Info(ctx, "job finished",
			logger.String("job_id", job.ID),
			logger.String("run_id", report.RunID),
			logger.Int("teams", len(report.Teams)),
		)
	}
	metrics.RecordJobCompleted(string(job.State))

	// The outcome must land even when ctx is already done.
	if err := w.store.Put(context.WithoutCancel(ctx), job); err != nil {
		w.logger.Error(ctx, "failed to store job outcome", logger.String("job_id", job.ID), logger.Error(err))
	}
}
