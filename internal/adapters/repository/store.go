// Package repository keeps optimization jobs for later lookup.
package repository

import (
	"context"

	"github.com/okian/relay/internal/domain/model"
)

// Store provides read/write access to jobs.
type Store interface {
	// Put inserts or replaces a job by ID. A replaced job keeps its age.
	Put(ctx context.Context, job model.Job) error

	// Get returns the job with id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Job, error)

	// Delete removes a job. Unknown ids are ignored.
	Delete(ctx context.Context, id string)

	// Recent returns up to n jobs, newest first.
	Recent(ctx context.Context, n int) ([]model.Job, error)

	// Count returns the number of jobs held.
	Count(ctx context.Context) int
}
