package assign

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/okian/relay/internal/adapters/milp"
	"github.com/okian/relay/internal/domain/model"
)

// Result is an interpreted optimal solution.
type Result struct {
	Teams []model.Team
	// Members holds, per team, the indices into the instance pool.
	Members   [][]int
	Objective float64
	Nodes     int
}

// Assigned returns the set of pool indices placed on any team.
func (r Result) Assigned() map[int]bool {
	used := make(map[int]bool)
	for _, idx := range r.Members {
		for _, i := range idx {
			used[i] = true
		}
	}
	return used
}

// Interpret reads the solved binaries back into teams. A non-optimal solve
// yields ErrNonOptimal (or ErrSolverTimeout when the engine was cancelled)
// and never a partial result.
func (a *Assignment) Interpret(sol milp.Solution) (Result, error) {
	switch sol.Status {
	case milp.StatusOptimal:
	case milp.StatusCancelled:
		return Result{}, ErrSolverTimeout
	default:
		return Result{}, fmt.Errorf("%w: engine status %s", ErrNonOptimal, sol.Status)
	}

	type formed struct {
		team model.Team
		idx  []int
	}
	var teams []formed
	for j := 0; j < a.teams; j++ {
		var members []model.Swimmer
		var idx []int
		for i := range a.pool {
			if v := a.x[i][j]; v != noVar && sol.Value(v) > 0.5 {
				members = append(members, a.pool[i])
				idx = append(idx, i)
			}
		}
		if len(members) == 0 {
			continue
		}
		team := model.NewTeam(0, "", members)
		team.Category = a.bounds.Resolve(team.AgeSum)
		teams = append(teams, formed{team: team, idx: idx})
	}
	if len(teams) == 0 {
		return Result{}, ErrEmptyAssignment
	}

	// Teams are numbered fastest first.
	slices.SortStableFunc(teams, func(p, q formed) int { return cmp.Compare(p.team.TimeSum, q.team.TimeSum) })
	res := Result{Objective: sol.Objective, Nodes: sol.Nodes}
	for k, f := range teams {
		f.team.Number = k + 1
		res.Teams = append(res.Teams, f.team)
		res.Members = append(res.Members, f.idx)
	}
	return res, nil
}

// Solve builds the model for in, solves it with engine and interprets the
// outcome. It blocks until the engine returns; ctx bounds the solve.
func Solve(ctx context.Context, engine milp.Engine, in Instance) (Result, error) {
	a, err := Build(in)
	if err != nil {
		return Result{}, err
	}
	sol, err := engine.Solve(ctx, a.Model)
	if err != nil {
		return Result{}, fmt.Errorf("solve %s: %w", a.Model.Name(), err)
	}
	if sol.Status == milp.StatusCancelled && ctx.Err() == nil {
		return Result{}, fmt.Errorf("%w: engine cancelled", ErrNonOptimal)
	}
	return a.Interpret(sol)
}
