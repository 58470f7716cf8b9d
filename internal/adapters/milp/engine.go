package milp

import "context"

// Status is the engine's verdict on a model.
type Status int

// Solve statuses. Only StatusOptimal carries meaningful values.
const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusNodeLimit
	StatusCancelled
	StatusNumerical
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusNodeLimit:
		return "node_limit"
	case StatusCancelled:
		return "cancelled"
	case StatusNumerical:
		return "numerical"
	default:
		return "unknown"
	}
}

// Solution is the outcome of a solve.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	// Nodes is the number of branch-and-bound nodes evaluated.
	Nodes int
}

// Value returns the solved value of v, or zero when no values are present.
func (s Solution) Value(v Var) float64 {
	if int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// Optimal reports whether the solution is proven optimal.
func (s Solution) Optimal() bool { return s.Status == StatusOptimal }

// Engine solves models. Implementations must honour ctx cancellation and
// report it as StatusCancelled rather than an error, and numerical trouble
// as StatusNumerical. Errors are reserved for malformed models.
type Engine interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, m *Model) (Solution, error)

// Solve calls f.
func (f EngineFunc) Solve(ctx context.Context, m *Model) (Solution, error) { return f(ctx, m) }
