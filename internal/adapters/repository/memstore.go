package repository

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/pkg/metrics"
)

const defaultHistorySize = 1000

// MemoryStore is a bounded in-memory Store. Once more than the configured
// history is held, the oldest finished jobs are evicted. Queued and running
// jobs are never evicted.
type MemoryStore struct {
	mu      sync.RWMutex
	maxSize int
	order   *list.List // oldest at the front
	jobs    map[string]*list.Element
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		maxSize: defaultHistorySize,
		order:   list.New(),
		jobs:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, job model.Job) error { //nolint:gocritic // hugeParam: stored by value
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.jobs[job.ID]; ok {
		el.Value = job
	} else {
		s.jobs[job.ID] = s.order.PushBack(job)
	}
	s.evict()
	metrics.UpdateJobHistorySize(len(s.jobs))
	return nil
}

// evict drops the oldest finished jobs until the store fits. Caller holds mu.
func (s *MemoryStore) evict() {
	for el := s.order.Front(); el != nil && len(s.jobs) > s.maxSize; {
		next := el.Next()
		if j := el.Value.(model.Job); j.State.Done() {
			s.order.Remove(el)
			delete(s.jobs, j.ID)
		}
		el = next
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Job, error) {
	if err := ctx.Err(); err != nil {
		return model.Job{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.jobs[id]
	if !ok {
		return model.Job{}, ErrNotFound
	}
	return el.Value.(model.Job), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.jobs[id]; ok {
		s.order.Remove(el)
		delete(s.jobs, id)
		metrics.UpdateJobHistorySize(len(s.jobs))
	}
}

// Recent implements Store.
func (s *MemoryStore) Recent(ctx context.Context, n int) ([]model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Job, 0, min(n, len(s.jobs)))
	for el := s.order.Back(); el != nil && len(out) < n; el = el.Prev() {
		out = append(out, el.Value.(model.Job))
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
