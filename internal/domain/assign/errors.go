package assign

import "errors"

// Sentinel kinds for assignment errors.
var (
	ErrInvalidInstance = errors.New("invalid assignment instance")
	ErrNonOptimal      = errors.New("no optimal solution")
	ErrEmptyAssignment = errors.New("teams could not be formed")
	ErrSolverTimeout   = errors.New("solver timed out")
)
