package api

import "errors"

// Sentinel kinds for request errors detected before the service is called.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrInvalidLimit  = errors.New("limit must be an integer")
	ErrInvalidFormat = errors.New("format must be json or yaml")
)
