package milp

import (
	"context"
	"math"
)

// Default engine tolerances.
const (
	defaultIntegralityTol = 1e-6
	defaultFeasibilityTol = 1e-7
	defaultLPTol          = 1e-10
	defaultGapTol         = 1e-9
)

// Option configures a BranchAndBound engine.
type Option func(*BranchAndBound)

// WithMaxNodes caps the number of evaluated nodes. Zero means unlimited.
func WithMaxNodes(n int) Option {
	return func(e *BranchAndBound) {
		if n >= 0 {
			e.maxNodes = n
		}
	}
}

// WithIntegralityTolerance sets how far from 0/1 a binary may be and still
// count as integral.
func WithIntegralityTolerance(tol float64) Option {
	return func(e *BranchAndBound) {
		if tol > 0 && tol < 0.5 {
			e.intTol = tol
		}
	}
}

// WithGapTolerance sets the absolute gap below which a node cannot improve
// on the incumbent.
func WithGapTolerance(tol float64) Option {
	return func(e *BranchAndBound) {
		if tol >= 0 {
			e.gapTol = tol
		}
	}
}

// BranchAndBound is a depth-first branch-and-bound engine. Every node
// solves the LP relaxation of the model with a subset of binaries fixed;
// the most fractional binary is branched on, rounding direction first.
// A point suggested with Model.SetStart seeds the incumbent. A node whose
// relaxation fails numerically is split without pruning, and a failed leaf
// turns the whole solve into StatusNumerical.
type BranchAndBound struct {
	maxNodes int
	intTol   float64
	feasTol  float64
	lpTol    float64
	gapTol   float64
}

// NewBranchAndBound creates an engine with default tolerances.
func NewBranchAndBound(opts ...Option) *BranchAndBound {
	e := &BranchAndBound{
		intTol:  defaultIntegralityTol,
		feasTol: defaultFeasibilityTol,
		lpTol:   defaultLPTol,
		gapTol:  defaultGapTol,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type bbNode struct {
	fixed []int8
}

func (n bbNode) with(v Var, val int8) bbNode {
	fixed := make([]int8, len(n.fixed))
	copy(fixed, n.fixed)
	fixed[v] = val
	return bbNode{fixed: fixed}
}

// Solve implements Engine.
func (e *BranchAndBound) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}

	implied := impliedBinaryBounds(m)
	root := bbNode{fixed: make([]int8, m.NumVars())}
	for i := range root.fixed {
		root.fixed[i] = free
	}

	stack := []bbNode{root}
	best := Solution{Status: StatusInfeasible}
	incumbent := math.Inf(1)
	if start, ok := e.start(m); ok {
		incumbent = m.Evaluate(start)
		best = Solution{Status: StatusOptimal, Objective: incumbent, Values: start}
	}
	nodes, unresolved := 0, 0

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return Solution{Status: StatusCancelled, Nodes: nodes}, nil
		}
		if e.maxNodes > 0 && nodes >= e.maxNodes {
			return Solution{Status: StatusNodeLimit, Nodes: nodes}, nil
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		r, err := e.relax(m, implied, nd.fixed)
		if err != nil {
			// No bound for this node: split it without pruning.
			v, ok := firstFree(m, nd.fixed)
			if !ok {
				unresolved++
				continue
			}
			stack = append(stack, nd.with(v, 0), nd.with(v, 1))
			continue
		}
		switch r.status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			return Solution{Status: StatusUnbounded, Nodes: nodes}, nil
		}
		if r.objective >= incumbent-e.gapTol*(1+math.Abs(incumbent)) {
			continue
		}

		v, ok := e.branchVar(m, nd.fixed, r.values)
		if !ok {
			incumbent = r.objective
			best = Solution{
				Status:    StatusOptimal,
				Objective: r.objective,
				Values:    e.roundBinaries(m, r.values),
			}
			continue
		}

		// LIFO: the child pushed last is explored first.
		if r.values[v] >= 0.5 {
			stack = append(stack, nd.with(v, 0), nd.with(v, 1))
		} else {
			stack = append(stack, nd.with(v, 1), nd.with(v, 0))
		}
	}

	if unresolved > 0 {
		return Solution{Status: StatusNumerical, Nodes: nodes}, nil
	}
	best.Nodes = nodes
	return best, nil
}

// start returns the model's suggested point when it is integral and
// satisfies every constraint.
func (e *BranchAndBound) start(m *Model) ([]float64, bool) {
	hint := m.Start()
	if len(hint) != m.NumVars() {
		return nil, false
	}
	for v, x := range hint {
		if x < -e.feasTol {
			return nil, false
		}
		if m.kinds[v] != Binary {
			continue
		}
		if r := math.Round(x); (r != 0 && r != 1) || math.Abs(x-r) > e.intTol {
			return nil, false
		}
	}
	if !m.Satisfied(hint, e.feasTol) {
		return nil, false
	}
	return e.roundBinaries(m, hint), true
}

func firstFree(m *Model, fixed []int8) (Var, bool) {
	for v, kind := range m.kinds {
		if kind == Binary && fixed[v] == free {
			return Var(v), true
		}
	}
	return -1, false
}

// branchVar picks the free binary whose value is closest to one half.
func (e *BranchAndBound) branchVar(m *Model, fixed []int8, values []float64) (Var, bool) {
	bestVar, bestDist := Var(-1), math.Inf(1)
	for v, kind := range m.kinds {
		if kind != Binary || fixed[v] != free {
			continue
		}
		frac := values[v] - math.Floor(values[v])
		if frac <= e.intTol || frac >= 1-e.intTol {
			continue
		}
		if d := math.Abs(frac - 0.5); d < bestDist {
			bestVar, bestDist = Var(v), d
		}
	}
	return bestVar, bestVar >= 0
}

func (e *BranchAndBound) roundBinaries(m *Model, values []float64) []float64 {
	out := make([]float64, len(values))
	for v, x := range values {
		if m.kinds[v] == Binary {
			out[v] = math.Round(x)
			continue
		}
		out[v] = x
	}
	return out
}
