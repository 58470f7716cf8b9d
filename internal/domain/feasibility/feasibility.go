// Package feasibility decides, without calling an optimization engine,
// whether a candidate pool can field a single team of a given size, women
// quota and age-sum range.
//
// The check is a pre-filter: it never reports a feasible team that does
// not exist, but it tests the women quota and the age sum separately, so a
// pool whose only in-range subsets lack women still passes and is rejected
// later by the solver.
package feasibility

import (
	"math"
	"sort"

	"github.com/okian/relay/internal/domain/model"
)

// Default checker configuration.
const (
	defaultDPThreshold = 24
	maxDPSum           = 1 << 20
)

// Option configures a Checker.
type Option func(*Checker)

// WithDPThreshold sets the pool size above which integral ages are checked
// with the cardinality-bounded subset-sum table instead of enumeration.
// Zero or negative disables the table.
func WithDPThreshold(n int) Option {
	return func(c *Checker) {
		c.dpThreshold = n
	}
}

// Checker runs the feasibility pre-check.
type Checker struct {
	dpThreshold int
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{dpThreshold: defaultDPThreshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultChecker = NewChecker()

// CanFormTeam runs the default checker.
func CanFormTeam(candidates []model.Swimmer, teamSize, minWomen int, minAge, maxAge float64) (bool, error) {
	return defaultChecker.CanFormTeam(candidates, teamSize, minWomen, minAge, maxAge)
}

// CanFormTeam checks, in order, pool size, women count and the existence of
// a teamSize subset whose summed age lies in [minAge, maxAge]. The returned
// error names the first failed check.
func (c *Checker) CanFormTeam(candidates []model.Swimmer, teamSize, minWomen int, minAge, maxAge float64) (bool, error) {
	if len(candidates) < teamSize {
		return false, ErrInsufficientSwimmers
	}
	if model.CountWomen(candidates) < minWomen {
		return false, ErrInsufficientWomen
	}
	ages := make([]float64, len(candidates))
	for i, s := range candidates {
		ages[i] = s.Age
	}
	if !c.ageSumReachable(ages, teamSize, minAge, maxAge) {
		return false, ErrNoAgeCombination
	}
	return true, nil
}

func (c *Checker) ageSumReachable(ages []float64, k int, lo, hi float64) bool {
	if k <= 0 {
		return lo <= 0 && 0 <= hi
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ages)))

	var largest, smallest float64
	for i := 0; i < k; i++ {
		largest += ages[i]
		smallest += ages[len(ages)-1-i]
	}
	if smallest > hi || largest < lo {
		return false
	}
	if lo <= smallest && smallest <= hi || lo <= largest && largest <= hi {
		return true
	}

	if c.dpThreshold > 0 && len(ages) > c.dpThreshold && integral(ages) && hi < maxDPSum {
		return reachableDP(ages, k, lo, hi)
	}
	return reachableEnum(ages, k, lo, hi)
}

// reachableEnum walks size-k combinations in lexicographic order over ages
// sorted descending and stops at the first sum inside [lo, hi].
func reachableEnum(ages []float64, k int, lo, hi float64) bool {
	var walk func(start, left int, sum float64) bool
	walk = func(start, left int, sum float64) bool {
		if left == 0 {
			return lo <= sum && sum <= hi
		}
		for i := start; i <= len(ages)-left; i++ {
			if walk(i+1, left-1, sum+ages[i]) {
				return true
			}
		}
		return false
	}
	return walk(0, k, 0)
}

// reachableDP tracks, per cardinality, which integral sums up to hi are
// reachable. Sums above hi are dropped because ages are positive.
func reachableDP(ages []float64, k int, lo, hi float64) bool {
	top := int(math.Floor(hi))
	reach := make([][]bool, k+1)
	for c := range reach {
		reach[c] = make([]bool, top+1)
	}
	reach[0][0] = true
	for n, a := range ages {
		age := int(a)
		for c := min(k, n+1); c >= 1; c-- {
			for s := top; s >= age; s-- {
				if reach[c-1][s-age] {
					reach[c][s] = true
				}
			}
		}
	}
	for s := max(0, int(math.Ceil(lo))); s <= top; s++ {
		if reach[k][s] {
			return true
		}
	}
	return false
}

func integral(xs []float64) bool {
	for _, x := range xs {
		if x != math.Trunc(x) {
			return false
		}
	}
	return true
}
