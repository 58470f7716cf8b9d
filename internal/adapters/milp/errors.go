package milp

import (
	"errors"
	"fmt"
)

// Sentinel kinds for engine errors.
var (
	ErrInvalidModel = errors.New("invalid model")
	ErrRelaxation   = errors.New("lp relaxation failed")
)

// ModelError describes a malformed model.
type ModelError struct {
	Where  string
	Reason string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("milp: %s: %s", e.Where, e.Reason)
}

// Unwrap lets callers match ErrInvalidModel.
func (e *ModelError) Unwrap() error { return ErrInvalidModel }
