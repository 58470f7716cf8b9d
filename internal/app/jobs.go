package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/relay/internal/adapters/mq/queue"
	"github.com/okian/relay/internal/adapters/repository"
	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/pkg/logger"
	"github.com/okian/relay/pkg/metrics"
)

// Submit accepts req for background optimization. A non-empty key makes the
// call idempotent: repeating it returns the job the key first created and
// duplicate set to true.
func (s *Service) Submit(ctx context.Context, key string, req model.Request) (job model.Job, duplicate bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Job{}, false, ErrNotStarted
	}

	snap, err := s.datasets.Current(ctx)
	if err != nil {
		return model.Job{}, false, err
	}
	if req, err = s.normalize(req, snap.Dataset.Categories); err != nil {
		return model.Job{}, false, err
	}

	id := uuid.NewString()
	if key != "" {
		bound, seen := s.deduper.Remember(ctx, key, id)
		if seen {
			existing, gerr := s.jobs.Get(ctx, bound)
			if gerr == nil {
				metrics.RecordJobDuplicate()
				s.logger.Debug(ctx, "duplicate job submission",
					logger.String("key", key),
					logger.String("job_id", bound),
				)
				return existing, true, nil
			}
			// The bound job aged out of history; the key starts over.
			s.deduper.Forget(ctx, key)
			s.deduper.Remember(ctx, key, id)
		}
	}

	job = model.Job{
		ID:          id,
		State:       model.JobQueued,
		Request:     req,
		SubmittedAt: time.Now(),
	}
	if err := s.jobs.Put(ctx, job); err != nil {
		s.forget(ctx, key)
		return model.Job{}, false, fmt.Errorf("store job: %w", err)
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.jobs.Delete(ctx, id)
		s.forget(ctx, key)
		metrics.RecordJobRejected()
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return model.Job{}, false, fmt.Errorf("%w: %w", ErrQueueFull, err)
		}
		return model.Job{}, false, err
	}

	metrics.RecordJobEnqueued()
	s.logger.Info(ctx, "job queued",
		logger.String("job_id", id),
		logger.String("mode", string(req.Mode)),
	)
	return job, false, nil
}

func (s *Service) forget(ctx context.Context, key string) {
	if key != "" {
		s.deduper.Forget(ctx, key)
	}
}

// Job returns the job with id.
func (s *Service) Job(ctx context.Context, id string) (model.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, err
}

// RecentJobs returns up to n jobs, newest first.
func (s *Service) RecentJobs(ctx context.Context, n int) ([]model.Job, error) {
	jobs, err := s.jobs.Recent(ctx, n)
	if errors.Is(err, repository.ErrInvalidLimit) {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidRequest)
	}
	return jobs, err
}
