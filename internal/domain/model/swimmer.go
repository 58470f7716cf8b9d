// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Gender is one of the two recognised roster labels.
type Gender string

// Recognised gender labels. Input is case-insensitive.
const (
	Female Gender = "F"
	Male   Gender = "M"
)

// ErrUnknownGender is returned by ParseGender for labels other than F or M.
var ErrUnknownGender = errors.New("gender must be 'M' or 'F'")

// ParseGender normalises a raw label.
func ParseGender(raw string) (Gender, error) {
	switch Gender(strings.ToUpper(strings.TrimSpace(raw))) {
	case Female:
		return Female, nil
	case Male:
		return Male, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrUnknownGender, raw)
	}
}

// IsFemale reports whether g counts toward the per-team women quota.
func (g Gender) IsFemale() bool { return g == Female }

// Swimmer is an immutable roster record.
type Swimmer struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Age    float64 `json:"age" yaml:"age"`
	Time   float64 `json:"time" yaml:"time"` // lower is faster
	Gender Gender  `json:"gender" yaml:"gender"`
}

// CountWomen returns how many swimmers carry the female label.
func CountWomen(swimmers []Swimmer) int {
	n := 0
	for _, s := range swimmers {
		if s.Gender.IsFemale() {
			n++
		}
	}
	return n
}
