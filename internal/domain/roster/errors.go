package roster

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for roster errors.
var (
	ErrInvalidDataset    = errors.New("invalid dataset")
	ErrNoDataset         = errors.New("no dataset loaded")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrMalformedInput    = errors.New("malformed dataset input")
)

// Violation is one failed validation rule.
type Violation struct {
	Section string `json:"section"` // "swimmers" or "categories"
	Row     int    `json:"row"`     // 0-based, -1 for the whole section
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Row < 0 {
		return fmt.Sprintf("%s: %s", v.Section, v.Message)
	}
	if v.Field == "" {
		return fmt.Sprintf("%s[%d]: %s", v.Section, v.Row, v.Message)
	}
	return fmt.Sprintf("%s[%d].%s: %s", v.Section, v.Row, v.Field, v.Message)
}

// ValidationError lists every violation found in one dataset.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDataset, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrInvalidDataset.
func (e *ValidationError) Unwrap() error { return ErrInvalidDataset }
