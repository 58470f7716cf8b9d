// Package milp provides a small 0/1 mixed integer linear programming model
// and a branch-and-bound engine that solves it.
//
// Models are built incrementally: variables are added with AddBinary or
// AddContinuous (both bounded below by zero), linear constraints with
// AddConstraint and the objective with Minimize. The model is immutable
// from the engine's point of view; engines never modify it.
package milp

import (
	"fmt"
	"math"
	"slices"
)

// Var indexes a decision variable inside its Model.
type Var int

// VarKind tells the engine whether a variable must end up integral.
type VarKind int

// Variable kinds.
const (
	Binary VarKind = iota
	Continuous
)

// Sense is the relation of a constraint's left-hand side to its right-hand side.
type Sense int

// Constraint senses.
const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Term is coef * var.
type Term struct {
	Var  Var
	Coef float64
}

// T is shorthand for building a Term.
func T(v Var, coef float64) Term { return Term{Var: v, Coef: coef} }

// Constraint is sum(terms) <sense> RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a minimisation problem over non-negative variables.
type Model struct {
	name        string
	kinds       []VarKind
	names       []string
	objective   []Term
	constraints []Constraint
	start       []float64
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{name: name}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// AddBinary adds a 0/1 variable.
func (m *Model) AddBinary(name string) Var { return m.addVar(name, Binary) }

// AddContinuous adds a continuous variable bounded below by zero.
func (m *Model) AddContinuous(name string) Var { return m.addVar(name, Continuous) }

func (m *Model) addVar(name string, kind VarKind) Var {
	m.kinds = append(m.kinds, kind)
	m.names = append(m.names, name)
	return Var(len(m.kinds) - 1)
}

// AddConstraint appends sum(terms) <sense> rhs. Terms on the same variable
// are merged and zero coefficients dropped.
func (m *Model) AddConstraint(name string, sense Sense, rhs float64, terms ...Term) {
	m.constraints = append(m.constraints, Constraint{
		Name:  name,
		Terms: compact(terms),
		Sense: sense,
		RHS:   rhs,
	})
}

// Minimize sets the objective, replacing any previous one.
func (m *Model) Minimize(terms ...Term) {
	m.objective = compact(terms)
}

// SetStart suggests a point indexed by Var. Engines may use it as their
// first incumbent and ignore it when it is not feasible.
func (m *Model) SetStart(values []float64) {
	m.start = slices.Clone(values)
}

// Start returns the suggested point, or nil.
func (m *Model) Start() []float64 { return m.start }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.kinds) }

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// Kind returns the kind of v.
func (m *Model) Kind(v Var) VarKind { return m.kinds[v] }

// VarName returns the name v was created with.
func (m *Model) VarName(v Var) string { return m.names[v] }

// Constraints returns the constraint list. Callers must not modify it.
func (m *Model) Constraints() []Constraint { return m.constraints }

// Objective returns the objective terms. Callers must not modify it.
func (m *Model) Objective() []Term { return m.objective }

// Validate checks that every term references a known variable and every
// coefficient is finite.
func (m *Model) Validate() error {
	check := func(where string, terms []Term) error {
		for _, t := range terms {
			if t.Var < 0 || int(t.Var) >= len(m.kinds) {
				return &ModelError{Where: where, Reason: fmt.Sprintf("unknown variable %d", t.Var)}
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return &ModelError{Where: where, Reason: fmt.Sprintf("non-finite coefficient on %s", m.names[t.Var])}
			}
		}
		return nil
	}
	if err := check("objective", m.objective); err != nil {
		return err
	}
	for _, c := range m.constraints {
		if err := check(c.Name, c.Terms); err != nil {
			return err
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return &ModelError{Where: c.Name, Reason: "non-finite right-hand side"}
		}
	}
	return nil
}

// Evaluate returns the objective value at values.
func (m *Model) Evaluate(values []float64) float64 {
	var sum float64
	for _, t := range m.objective {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Satisfied reports whether values meets every constraint within tol.
func (m *Model) Satisfied(values []float64, tol float64) bool {
	for _, c := range m.constraints {
		var lhs float64
		for _, t := range c.Terms {
			lhs += t.Coef * values[t.Var]
		}
		if !holds(c.Sense, lhs, c.RHS, tol) {
			return false
		}
	}
	return true
}

func holds(s Sense, lhs, rhs, tol float64) bool {
	switch s {
	case LessEq:
		return lhs <= rhs+tol
	case GreaterEq:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}

func compact(terms []Term) []Term {
	out := make([]Term, 0, len(terms))
	pos := make(map[Var]int, len(terms))
	for _, t := range terms {
		if i, ok := pos[t.Var]; ok {
			out[i].Coef += t.Coef
			continue
		}
		pos[t.Var] = len(out)
		out = append(out, t)
	}
	kept := out[:0]
	for _, t := range out {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	return kept
}
