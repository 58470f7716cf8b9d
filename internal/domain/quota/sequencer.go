// Package quota satisfies a per-category team count by extracting one team
// at a time from a shrinking pool, then packs the leftovers into generic
// minimum-time teams.
package quota

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/okian/relay/internal/adapters/milp"
	"github.com/okian/relay/internal/domain/assign"
	"github.com/okian/relay/internal/domain/feasibility"
	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/pkg/logger"
	"github.com/okian/relay/pkg/metrics"
)

// Request describes a quota run.
type Request struct {
	TeamSize int
	MinWomen int
	// Quotas maps category name to requested team count. Zero or missing
	// means no quota for that category.
	Quotas map[string]int
}

// Outcome is the result of a completed run.
type Outcome struct {
	// Teams holds quota teams first, then overflow teams, numbered 1..n.
	Teams []model.Team
	// Built counts quota teams per category.
	Built      map[string]int
	QuotaTeams int
	// OverflowTeams counts generic teams packed from the leftovers.
	OverflowTeams int
	// OverflowErr is set when the leftover pool could not be packed. The
	// quota teams are still returned.
	OverflowErr error
	Unassigned  []model.Swimmer
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithChecker replaces the feasibility checker.
func WithChecker(c *feasibility.Checker) Option {
	return func(s *Sequencer) {
		if c != nil {
			s.checker = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sequencer runs quota requests against an engine.
type Sequencer struct {
	engine  milp.Engine
	checker *feasibility.Checker
	logger  logger.Logger
}

// NewSequencer creates a Sequencer.
func NewSequencer(engine milp.Engine, opts ...Option) *Sequencer {
	s := &Sequencer{
		engine:  engine,
		checker: feasibility.NewChecker(),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type planEntry struct {
	category model.Category
	count    int
}

type phase int

const (
	phaseExtracting phase = iota
	phaseOverflow
	phaseDone
	phaseAborted
)

// state is one snapshot of the machine. Transitions return a new state and
// never modify the one they were given.
type state struct {
	phase     phase
	step      int
	remaining int
	used      usedSet
	teams     []model.Team
	built     []int
	overflow  int
	overErr   error
	abort     *AbortError
}

// Run executes req over roster. Every swimmer is addressed by its index in
// roster; roster itself is never modified. On abort no teams are returned.
func (s *Sequencer) Run(ctx context.Context, roster []model.Swimmer, table []model.Category, req Request) (Outcome, error) {
	plan, err := buildPlan(table, req.Quotas)
	if err != nil {
		return Outcome{}, err
	}

	st := state{phase: phaseOverflow, used: usedSet{}, built: make([]int, len(plan))}
	if len(plan) > 0 {
		st.phase, st.remaining = phaseExtracting, plan[0].count
	}

	for st.phase != phaseDone && st.phase != phaseAborted {
		switch st.phase {
		case phaseExtracting:
			st = s.extract(ctx, roster, plan, req, st)
		case phaseOverflow:
			st, err = s.packOverflow(ctx, roster, table, req, st)
			if err != nil {
				return Outcome{}, err
			}
		}
	}

	if st.phase == phaseAborted {
		metrics.RecordQuotaAbort(abortKind(st.abort.Reason))
		s.logger.Warn(ctx, "quota run aborted",
			logger.String("category", st.abort.Category),
			logger.Int("completed", st.abort.Completed),
			logger.Error(st.abort.Reason),
		)
		return Outcome{}, st.abort
	}

	out := Outcome{
		Teams:         st.teams,
		Built:         make(map[string]int, len(plan)),
		OverflowTeams: st.overflow,
		OverflowErr:   st.overErr,
	}
	for i, e := range plan {
		out.Built[e.category.Name] = st.built[i]
		out.QuotaTeams += st.built[i]
	}
	out.Unassigned, _ = st.used.remaining(roster)
	return out, nil
}

// extract forms exactly one team for the current plan entry. The team keeps
// the label of the category it was built for, even when an earlier
// category of an overlapping table also contains its age sum.
func (s *Sequencer) extract(ctx context.Context, roster []model.Swimmer, plan []planEntry, req Request, st state) state {
	entry := plan[st.step]
	cat := entry.category

	if err := ctx.Err(); err != nil {
		return st.aborted(cat.Name, fmt.Errorf("%w: %w", assign.ErrSolverTimeout, err))
	}

	pool, index := st.used.remaining(roster)
	if ok, reason := s.checker.CanFormTeam(pool, req.TeamSize, req.MinWomen, cat.MinAge, cat.MaxAge); !ok {
		metrics.RecordFeasibilityRejection(feasibility.ReasonCode(reason))
		return st.aborted(cat.Name, fmt.Errorf("%w: %w", ErrQuotaInfeasible, reason))
	}

	res, err := assign.Solve(ctx, s.engine, assign.Instance{
		Pool:     pool,
		Bounds:   assign.FixedBounds{Category: cat},
		Teams:    assign.ExplicitTeams(1),
		TeamSize: req.TeamSize,
		MinWomen: req.MinWomen,
		Mode:     model.ModeMinimizeTotal,
	})
	if err != nil {
		return st.aborted(cat.Name, err)
	}
	team := res.Teams[0]
	if team.Category != cat.Name || !cat.Contains(team.AgeSum) {
		return st.aborted(cat.Name, fmt.Errorf("%w: team labelled %s has age sum %g", ErrQuotaMismatch, team.Category, team.AgeSum))
	}

	members := make([]int, len(res.Members[0]))
	for k, i := range res.Members[0] {
		members[k] = index[i]
	}
	team.Number = len(st.teams) + 1

	next := st
	next.used = st.used.with(members...)
	next.teams = append(slices.Clip(st.teams), team)
	next.built = slices.Clone(st.built)
	next.built[st.step]++
	next.remaining--

	s.logger.Debug(ctx, "quota team formed",
		logger.String("category", cat.Name),
		logger.Int("team", team.Number),
		logger.Float64("age_sum", team.AgeSum),
		logger.Float64("time_sum", team.TimeSum),
	)

	if next.remaining > 0 {
		return next
	}
	next.step++
	if next.step == len(plan) {
		next.phase = phaseOverflow
		return next
	}
	next.remaining = plan[next.step].count
	return next
}

// packOverflow places the leftover swimmers into floor(left/teamSize)
// minimum-time teams over the whole category table. A failed pack is kept
// on the outcome; only a timeout is fatal.
func (s *Sequencer) packOverflow(ctx context.Context, roster []model.Swimmer, table []model.Category, req Request, st state) (state, error) {
	next := st
	next.phase = phaseDone

	pool, index := st.used.remaining(roster)
	if len(pool) < req.TeamSize {
		return next, nil
	}

	res, err := assign.Solve(ctx, s.engine, assign.Instance{
		Pool:     pool,
		Bounds:   assign.TableBounds{Categories: table},
		Teams:    assign.DerivedTeams(),
		TeamSize: req.TeamSize,
		MinWomen: req.MinWomen,
		Mode:     model.ModeMinimizeTotal,
	})
	switch {
	case errors.Is(err, assign.ErrSolverTimeout):
		return state{}, fmt.Errorf("overflow: %w", err)
	case err != nil:
		s.logger.Warn(ctx, "overflow teams could not be formed",
			logger.Int("leftover", len(pool)),
			logger.Error(err),
		)
		next.overErr = err
		return next, nil
	}

	var members []int
	teams := slices.Clone(st.teams)
	for k, team := range res.Teams {
		team.Number = len(st.teams) + k + 1
		teams = append(teams, team)
		for _, i := range res.Members[k] {
			members = append(members, index[i])
		}
	}
	next.teams = teams
	next.used = st.used.with(members...)
	next.overflow = len(res.Teams)
	return next, nil
}

func (st state) aborted(category string, reason error) state {
	completed := 0
	for _, n := range st.built {
		completed += n
	}
	next := st
	next.phase = phaseAborted
	next.abort = &AbortError{Category: category, Reason: reason, Completed: completed}
	return next
}

func buildPlan(table []model.Category, quotas map[string]int) ([]planEntry, error) {
	for name, n := range quotas {
		if _, ok := model.FindCategory(table, name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %q requests %d teams", ErrInvalidQuota, name, n)
		}
	}
	var plan []planEntry
	for _, c := range table {
		if n := quotas[c.Name]; n > 0 {
			plan = append(plan, planEntry{category: c, count: n})
		}
	}
	return plan, nil
}

func abortKind(err error) string {
	switch {
	case errors.Is(err, ErrQuotaInfeasible):
		return "infeasible"
	case errors.Is(err, ErrQuotaMismatch):
		return "mismatch"
	case errors.Is(err, assign.ErrSolverTimeout):
		return "timeout"
	case errors.Is(err, assign.ErrEmptyAssignment):
		return "empty"
	default:
		return "non_optimal"
	}
}
