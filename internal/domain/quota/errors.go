package quota

import (
	"errors"
	"fmt"
)

// Sentinel kinds for quota errors.
var (
	ErrQuotaInfeasible = errors.New("quota infeasible")
	ErrQuotaMismatch   = errors.New("quota category mismatch")
	ErrUnknownCategory = errors.New("unknown quota category")
	ErrInvalidQuota    = errors.New("invalid quota")
)

// AbortError reports where a quota run stopped. The run's teams are
// discarded; Completed only says how many had been extracted.
type AbortError struct {
	Category  string
	Reason    error
	Completed int
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("could not form a valid team for category %s: %v", e.Category, e.Reason)
}

// Unwrap exposes the reason to errors.Is.
func (e *AbortError) Unwrap() error { return e.Reason }
