package assign

import (
	"fmt"
	"slices"

	"github.com/okian/relay/internal/adapters/milp"
	"github.com/okian/relay/internal/domain/model"
)

// noVar marks a swimmer/team pair that has no variable.
const noVar milp.Var = -1

// Assignment is a built model together with the variable layout needed to
// read a solution back.
type Assignment struct {
	Model *milp.Model

	pool   []model.Swimmer
	bounds AgeBounds
	teams  int
	x      [][]milp.Var // x[swimmer][team], noVar when team > swimmer

	balance      bool
	upper, lower milp.Var
}

// Teams returns the number of teams the model asks for.
func (a *Assignment) Teams() int { return a.teams }

// Build translates an instance into a binary assignment model:
//
//	each swimmer on at most one team
//	each team has exactly TeamSize members
//	each team has at least MinWomen women
//	each team's age sum lies within Bounds.Range()
//
// minimize-total minimises the summed time of every assigned swimmer;
// balance minimises the spread between the slowest and the fastest team.
// Teams are interchangeable, so swimmer i only gets variables for teams
// 0..i: numbering teams by their first member keeps every assignment.
// A greedy assignment, when one is found, is suggested as the start.
func Build(in Instance) (*Assignment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pool := slices.Clone(in.Pool)
	n := len(pool)
	t := in.Teams.Resolve(n, in.TeamSize)
	m := milp.NewModel(fmt.Sprintf("relay_%s_%dx%d", in.Mode, n, t))

	x := make([][]milp.Var, n)
	for i := range pool {
		x[i] = make([]milp.Var, t)
		for j := 0; j < t; j++ {
			x[i][j] = noVar
			if j <= i {
				x[i][j] = m.AddBinary(fmt.Sprintf("x_%d_%d", i, j))
			}
		}
	}

	for i := range pool {
		var terms []milp.Term
		for _, v := range x[i] {
			if v != noVar {
				terms = append(terms, milp.T(v, 1))
			}
		}
		if len(terms) > 0 {
			m.AddConstraint(fmt.Sprintf("swimmer_%d_once", i), milp.LessEq, 1, terms...)
		}
	}

	lo, hi := in.Bounds.Range()
	teamTime := make([][]milp.Term, t)
	for j := 0; j < t; j++ {
		size := make([]milp.Term, 0, n)
		women := make([]milp.Term, 0, n)
		age := make([]milp.Term, 0, n)
		for i, s := range pool {
			v := x[i][j]
			if v == noVar {
				continue
			}
			size = append(size, milp.T(v, 1))
			if s.Gender.IsFemale() {
				women = append(women, milp.T(v, 1))
			}
			age = append(age, milp.T(v, s.Age))
			teamTime[j] = append(teamTime[j], milp.T(v, s.Time))
		}
		m.AddConstraint(fmt.Sprintf("team_%d_size", j), milp.Equal, float64(in.TeamSize), size...)
		m.AddConstraint(fmt.Sprintf("team_%d_women", j), milp.GreaterEq, float64(in.MinWomen), women...)
		m.AddConstraint(fmt.Sprintf("team_%d_age_min", j), milp.GreaterEq, lo, age...)
		m.AddConstraint(fmt.Sprintf("team_%d_age_max", j), milp.LessEq, hi, age...)
	}

	a := &Assignment{Model: m, pool: pool, bounds: in.Bounds, teams: t, x: x, upper: noVar, lower: noVar}

	switch in.Mode {
	case model.ModeBalance:
		if t == 0 {
			break
		}
		a.balance = true
		a.upper = m.AddContinuous("max_time")
		a.lower = m.AddContinuous("min_time")
		for j := 0; j < t; j++ {
			m.AddConstraint(fmt.Sprintf("team_%d_below_max", j), milp.LessEq, 0,
				append(slices.Clone(teamTime[j]), milp.T(a.upper, -1))...)
			m.AddConstraint(fmt.Sprintf("team_%d_above_min", j), milp.GreaterEq, 0,
				append(slices.Clone(teamTime[j]), milp.T(a.lower, -1))...)
		}
		m.Minimize(milp.T(a.upper, 1), milp.T(a.lower, -1))
	default:
		var total []milp.Term
		for j := 0; j < t; j++ {
			total = append(total, teamTime[j]...)
		}
		m.Minimize(total...)
	}

	if t > 0 {
		if teams, ok := greedyTeams(pool, t, in.TeamSize, in.MinWomen, lo, hi); ok {
			a.suggest(teams)
		}
	}
	return a, nil
}

// suggest hands teams to the model as its starting point. teams[j] must
// only hold swimmers with an x variable for team j.
func (a *Assignment) suggest(teams [][]int) {
	values := make([]float64, a.Model.NumVars())
	times := make([]float64, len(teams))
	for j, members := range teams {
		for _, i := range members {
			v := a.x[i][j]
			if v == noVar {
				return
			}
			values[v] = 1
			times[j] += a.pool[i].Time
		}
	}
	if a.balance {
		values[a.upper] = slices.Max(times)
		values[a.lower] = slices.Min(times)
	}
	a.Model.SetStart(values)
}
