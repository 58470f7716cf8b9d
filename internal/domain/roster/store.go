package roster

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable view of one stored dataset.
type Snapshot struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Dataset  Dataset   `json:"dataset"`
}

// Store holds the current dataset.
type Store interface {
	// Put replaces the current dataset and returns its snapshot.
	Put(ctx context.Context, ds Dataset) (Snapshot, error)
	// Current returns the latest snapshot or ErrNoDataset.
	Current(ctx context.Context) (Snapshot, error)
}

// memoryStore keeps the dataset in process memory. Every snapshot handed out
// is a private copy, so callers may keep or modify it freely.
type memoryStore struct {
	mu      sync.RWMutex
	current *Snapshot
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{now: time.Now}
}

func (s *memoryStore) Put(ctx context.Context, ds Dataset) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:  uuid.NewString(),
		LoadedAt: s.now().UTC(),
		Dataset:  ds.Clone(),
	}
	s.mu.Lock()
	s.current = &snap
	s.mu.Unlock()
	return Snapshot{Version: snap.Version, LoadedAt: snap.LoadedAt, Dataset: snap.Dataset.Clone()}, nil
}

func (s *memoryStore) Current(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Snapshot{}, ErrNoDataset
	}
	return Snapshot{
		Version:  s.current.Version,
		LoadedAt: s.current.LoadedAt,
		Dataset:  s.current.Dataset.Clone(),
	}, nil
}
