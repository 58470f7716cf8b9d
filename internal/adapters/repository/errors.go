package repository

import "errors"

// Sentinel kinds for job store errors.
var (
	ErrNotFound     = errors.New("job not found")
	ErrMissingID    = errors.New("job id is required")
	ErrInvalidLimit = errors.New("invalid job limit")
)
