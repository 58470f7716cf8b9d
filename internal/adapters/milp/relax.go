package milp

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const free int8 = -1

// Penalty on artificial columns, as a multiple of the largest cost, and how
// often it is raised before the relaxation gives up.
const (
	penaltyScale   = 1e3
	penaltyGrowth  = 1e3
	penaltyRetries = 3
)

var errPenalty = errors.New("artificial columns stay basic")

// relaxation is the LP relaxation of a model restricted by a set of fixed
// binaries.
type relaxation struct {
	status    Status
	objective float64
	values    []float64
}

type lpRow struct {
	terms []Term
	sense Sense
	rhs   float64
}

// relax solves the LP relaxation of m where fixed[v] >= 0 pins variable v.
// Fixed variables are substituted out instead of being added as rows, which
// keeps the constraint matrix at full row rank.
func (e *BranchAndBound) relax(m *Model, implied []bool, fixed []int8) (relaxation, error) {
	n := m.NumVars()
	values := make([]float64, n)

	var objConst float64
	for _, t := range m.objective {
		if fixed[t.Var] != free {
			objConst += t.Coef * float64(fixed[t.Var])
		}
	}
	for v := 0; v < n; v++ {
		if fixed[v] != free {
			values[v] = float64(fixed[v])
		}
	}

	rows := make([]lpRow, 0, len(m.constraints))
	for _, c := range m.constraints {
		rhs := c.RHS
		terms := make([]Term, 0, len(c.Terms))
		for _, t := range c.Terms {
			if fixed[t.Var] != free {
				rhs -= t.Coef * float64(fixed[t.Var])
				continue
			}
			terms = append(terms, t)
		}
		if len(terms) == 0 {
			if !holds(c.Sense, 0, rhs, e.feasTol) {
				return relaxation{status: StatusInfeasible}, nil
			}
			continue
		}
		rows = append(rows, lpRow{terms: terms, sense: c.Sense, rhs: rhs})
	}
	for v := 0; v < n; v++ {
		if m.kinds[v] == Binary && fixed[v] == free && !implied[v] {
			rows = append(rows, lpRow{terms: []Term{{Var: Var(v), Coef: 1}}, sense: LessEq, rhs: 1})
		}
	}

	objCoef := make([]float64, n)
	for _, t := range m.objective {
		objCoef[t.Var] += t.Coef
	}

	// Columns that appear in no row are settled directly: at zero, unless a
	// negative cost makes the relaxation unbounded.
	used := make([]bool, n)
	for _, r := range rows {
		for _, t := range r.terms {
			used[t.Var] = true
		}
	}
	col := make([]int, n)
	var cols []Var
	for v := 0; v < n; v++ {
		col[v] = -1
		if fixed[v] != free {
			continue
		}
		if !used[v] {
			if objCoef[v] < 0 {
				return relaxation{status: StatusUnbounded}, nil
			}
			continue
		}
		col[v] = len(cols)
		cols = append(cols, Var(v))
	}

	if len(rows) == 0 {
		return relaxation{status: StatusOptimal, objective: objConst, values: values}, nil
	}

	sf := newStandardForm(rows, cols, col, objCoef)
	opt, x, err := e.solveStandard(sf)
	if err != nil && !errors.Is(err, lp.ErrInfeasible) && !errors.Is(err, lp.ErrUnbounded) {
		opt, x, err = e.solveFromScratch(sf)
	}
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return relaxation{status: StatusInfeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return relaxation{status: StatusUnbounded}, nil
	case err != nil:
		return relaxation{}, fmt.Errorf("%w: %w", ErrRelaxation, err)
	}
	for j, v := range cols {
		values[v] = x[j]
	}
	return relaxation{status: StatusOptimal, objective: opt + objConst, values: values}, nil
}

// standardForm is min c'x subject to Ax = b, x >= 0 with b >= 0. Columns
// are laid out as structural, then slack, then artificial. basis names one
// column per row; together they form the identity, so the simplex always
// starts from a well conditioned feasible basis.
type standardForm struct {
	a          *mat.Dense
	b          []float64
	c          []float64
	structural int
	slacks     int
	artificial []int
	basis      []int
}

func newStandardForm(rows []lpRow, cols []Var, col []int, objCoef []float64) *standardForm {
	sf := &standardForm{
		structural: len(cols),
		b:          make([]float64, len(rows)),
		basis:      make([]int, len(rows)),
	}
	sign := make([]float64, len(rows))
	needsArtificial := make([]bool, len(rows))
	artificials := 0
	for i, r := range rows {
		sign[i] = 1
		if r.rhs < 0 {
			sign[i] = -1
		}
		if r.sense != Equal {
			sf.slacks++
		}
		if slackCoef(r.sense)*sign[i] <= 0 {
			needsArtificial[i] = true
			artificials++
		}
	}

	n := sf.structural + sf.slacks + artificials
	sf.a = mat.NewDense(len(rows), n, nil)
	sf.c = make([]float64, n)
	for j, v := range cols {
		sf.c[j] = objCoef[v]
	}
	slack, art := sf.structural, sf.structural+sf.slacks
	for i, r := range rows {
		for _, t := range r.terms {
			j := col[t.Var]
			sf.a.Set(i, j, sf.a.At(i, j)+sign[i]*t.Coef)
		}
		sf.b[i] = sign[i] * r.rhs
		if s := slackCoef(r.sense); s != 0 {
			sf.a.Set(i, slack, sign[i]*s)
			sf.basis[i] = slack
			slack++
		}
		if needsArtificial[i] {
			sf.a.Set(i, art, 1)
			sf.basis[i] = art
			sf.artificial = append(sf.artificial, art)
			art++
		}
	}
	return sf
}

func slackCoef(s Sense) float64 {
	switch s {
	case LessEq:
		return 1
	case GreaterEq:
		return -1
	default:
		return 0
	}
}

// objective is the original cost of x, artificial columns excluded.
func (sf *standardForm) objective(x []float64) float64 {
	return floats.Dot(sf.c[:sf.structural], x[:sf.structural])
}

func (sf *standardForm) artificialSum(x []float64) float64 {
	var sum float64
	for _, j := range sf.artificial {
		sum += x[j]
	}
	return sum
}

// solveStandard runs the simplex from the identity basis. Artificial
// columns carry a penalty cost. An optimum that leaves them at zero is
// optimal for the original LP; otherwise a feasibility pass tells an
// infeasible LP apart from a penalty that was too small.
func (e *BranchAndBound) solveStandard(sf *standardForm) (float64, []float64, error) {
	if len(sf.artificial) == 0 {
		_, x, err := lp.Simplex(sf.c, sf.a, sf.b, e.lpTol, sf.basis)
		if err != nil {
			return 0, nil, err
		}
		return sf.objective(x), x, nil
	}

	scale := 1 + floats.Norm(sf.c, math.Inf(1))
	penalty := penaltyScale * scale
	checked := false
	for range penaltyRetries {
		cost := slices.Clone(sf.c)
		for _, j := range sf.artificial {
			cost[j] = penalty
		}
		_, x, err := lp.Simplex(cost, sf.a, sf.b, e.lpTol*scale, sf.basis)
		switch {
		case errors.Is(err, lp.ErrUnbounded):
			ok, ferr := e.feasible(sf)
			if ferr != nil {
				return 0, nil, ferr
			}
			if !ok {
				return 0, nil, lp.ErrInfeasible
			}
			return 0, nil, lp.ErrUnbounded
		case err != nil:
			return 0, nil, err
		}
		if sf.artificialSum(x) <= e.feasTol {
			return sf.objective(x), x, nil
		}
		if !checked {
			ok, ferr := e.feasible(sf)
			if ferr != nil {
				return 0, nil, ferr
			}
			if !ok {
				return 0, nil, lp.ErrInfeasible
			}
			checked = true
		}
		penalty *= penaltyGrowth
	}
	return 0, nil, errPenalty
}

// feasible minimises the artificial columns alone.
func (e *BranchAndBound) feasible(sf *standardForm) (bool, error) {
	cost := make([]float64, len(sf.c))
	for _, j := range sf.artificial {
		cost[j] = 1
	}
	_, x, err := lp.Simplex(cost, sf.a, sf.b, e.lpTol, sf.basis)
	if err != nil {
		return false, err
	}
	return sf.artificialSum(x) <= e.feasTol, nil
}

// solveFromScratch drops the artificial columns and lets lp.Simplex search
// for its own initial basis.
func (e *BranchAndBound) solveFromScratch(sf *standardForm) (float64, []float64, error) {
	rows, _ := sf.a.Dims()
	n := sf.structural + sf.slacks
	if rows > n {
		return 0, nil, fmt.Errorf("%d rows exceed %d columns", rows, n)
	}
	_, x, err := lp.Simplex(sf.c[:n], sf.a.Slice(0, rows, 0, n), sf.b, e.lpTol, nil)
	if err != nil {
		return 0, nil, err
	}
	return sf.objective(x), x, nil
}

// impliedBinaryBounds marks binaries whose upper bound of one already
// follows from a row sum(a*x) <= r with non-negative coefficients and r <= a.
func impliedBinaryBounds(m *Model) []bool {
	implied := make([]bool, m.NumVars())
	for _, c := range m.constraints {
		if c.Sense == GreaterEq {
			continue
		}
		nonNegative := true
		for _, t := range c.Terms {
			if t.Coef < 0 {
				nonNegative = false
				break
			}
		}
		if !nonNegative {
			continue
		}
		for _, t := range c.Terms {
			if m.kinds[t.Var] == Binary && c.RHS <= t.Coef {
				implied[t.Var] = true
			}
		}
	}
	return implied
}
