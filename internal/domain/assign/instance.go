// Package assign turns a swimmer pool into a 0/1 team assignment model,
// hands it to an optimization engine and interprets the solved values as
// relay teams.
package assign

import (
	"fmt"

	"github.com/okian/relay/internal/domain/model"
)

// AgeBounds is the source of the per-team age-sum range. It is either a
// single fixed category or the whole category table.
type AgeBounds interface {
	// Range returns the inclusive age-sum bounds every team must respect.
	Range() (lo, hi float64)
	// Resolve labels a team with the given age sum.
	Resolve(ageSum float64) string
	isAgeBounds()
}

// FixedBounds pins every team to one category.
type FixedBounds struct {
	Category model.Category
}

// Range implements AgeBounds.
func (f FixedBounds) Range() (float64, float64) { return f.Category.MinAge, f.Category.MaxAge }

// Resolve implements AgeBounds. The fixed label is used as is.
func (f FixedBounds) Resolve(float64) string { return f.Category.Name }

func (FixedBounds) isAgeBounds() {}

// TableBounds bounds teams by the envelope of all categories and resolves
// the label after solving.
type TableBounds struct {
	Categories []model.Category
}

// Range implements AgeBounds.
func (t TableBounds) Range() (float64, float64) {
	lo, hi, _ := model.Envelope(t.Categories)
	return lo, hi
}

// Resolve implements AgeBounds with first-match lookup in table order.
func (t TableBounds) Resolve(ageSum float64) string {
	return model.ResolveCategory(t.Categories, ageSum)
}

func (TableBounds) isAgeBounds() {}

type teamCountKind int

const (
	derivedTeams teamCountKind = iota
	explicitTeams
	quotaTeams
)

// TeamCount says how many teams an instance asks for.
type TeamCount struct {
	kind   teamCountKind
	n      int
	quotas map[string]int
}

// ExplicitTeams requests exactly n teams.
func ExplicitTeams(n int) TeamCount { return TeamCount{kind: explicitTeams, n: n} }

// QuotaTeams requests the sum of the per-category counts.
func QuotaTeams(quotas map[string]int) TeamCount { return TeamCount{kind: quotaTeams, quotas: quotas} }

// DerivedTeams requests floor(pool / teamSize) teams.
func DerivedTeams() TeamCount { return TeamCount{kind: derivedTeams} }

// Resolve returns the concrete team count.
func (c TeamCount) Resolve(poolSize, teamSize int) int {
	switch c.kind {
	case explicitTeams:
		return c.n
	case quotaTeams:
		total := 0
		for _, n := range c.quotas {
			total += n
		}
		return total
	default:
		if teamSize <= 0 {
			return 0
		}
		return poolSize / teamSize
	}
}

// Instance is the transient problem description consumed by Build.
type Instance struct {
	Pool     []model.Swimmer
	Bounds   AgeBounds
	Teams    TeamCount
	TeamSize int
	MinWomen int
	Mode     model.Mode
}

// Validate checks parameters that would otherwise produce a meaningless model.
func (in Instance) Validate() error {
	switch {
	case in.TeamSize < 2:
		return fmt.Errorf("%w: team size must be at least 2, got %d", ErrInvalidInstance, in.TeamSize)
	case in.MinWomen < 1 || in.MinWomen > in.TeamSize:
		return fmt.Errorf("%w: minimum women must be between 1 and %d, got %d", ErrInvalidInstance, in.TeamSize, in.MinWomen)
	case in.Bounds == nil:
		return fmt.Errorf("%w: missing age bounds", ErrInvalidInstance)
	case in.Mode != model.ModeMinimizeTotal && in.Mode != model.ModeBalance:
		return fmt.Errorf("%w: unsupported mode %q", ErrInvalidInstance, in.Mode)
	}
	if tb, ok := in.Bounds.(TableBounds); ok && len(tb.Categories) == 0 {
		return fmt.Errorf("%w: empty category table", ErrInvalidInstance)
	}
	if n := in.Teams.Resolve(len(in.Pool), in.TeamSize); n < 0 {
		return fmt.Errorf("%w: negative team count %d", ErrInvalidInstance, n)
	}
	return nil
}
