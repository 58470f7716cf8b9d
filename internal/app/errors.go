package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidRequest = errors.New("invalid optimization request")
	ErrBusy           = errors.New("optimizer is busy")
	ErrNotStarted     = errors.New("service not started")
	ErrQueueFull      = errors.New("job queue is full")
	ErrJobNotFound    = errors.New("job not found")
)
