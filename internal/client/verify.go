package client

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/relay/internal/domain/model"
)

const sumTolerance = 1e-6

// checkLabel accepts the first matching category. Quota runs may also label
// a team with any category whose range holds its age sum.
func checkLabel(t model.Team, mode model.Mode, table []model.Category) error {
	want := model.ResolveCategory(table, t.AgeSum)
	if t.Category == want {
		return nil
	}
	if cat, ok := model.FindCategory(table, t.Category); ok && mode == model.ModeQuota && cat.Contains(t.AgeSum) {
		return nil
	}
	return fmt.Errorf("team %d is labelled %s, age sum %g resolves to %s", t.Number, t.Category, t.AgeSum, want)
}

// Verify checks a report against the request that produced it and the
// category table it ran on. Every violation found is returned, joined.
func Verify(report *model.Report, req model.Request, table []model.Category) error {
	if report == nil {
		return fmt.Errorf("%w: no report", ErrInvalidTeams)
	}
	var errs []error
	seen := make(map[string]int)
	perCategory := make(map[string]int)

	for _, t := range report.Teams {
		if req.TeamSize > 0 && len(t.Members) != req.TeamSize {
			errs = append(errs, fmt.Errorf("team %d has %d members, want %d", t.Number, len(t.Members), req.TeamSize))
		}
		if req.MinWomen > 0 && t.Women() < req.MinWomen {
			errs = append(errs, fmt.Errorf("team %d has %d women, want at least %d", t.Number, t.Women(), req.MinWomen))
		}
		var ages, times float64
		for _, m := range t.Members {
			ages += m.Age
			times += m.Time
			if prev, dup := seen[m.ID]; dup {
				errs = append(errs, fmt.Errorf("swimmer %s is on teams %d and %d", m.ID, prev, t.Number))
			}
			seen[m.ID] = t.Number
		}
		if math.Abs(ages-t.AgeSum) > sumTolerance || math.Abs(times-t.TimeSum) > sumTolerance {
			errs = append(errs, fmt.Errorf("team %d sums do not match its members", t.Number))
		}
		if err := checkLabel(t, req.Mode, table); err != nil {
			errs = append(errs, err)
		}
		perCategory[t.Category]++
	}

	for _, s := range report.Unassigned {
		if team, dup := seen[s.ID]; dup {
			errs = append(errs, fmt.Errorf("swimmer %s is both unassigned and on team %d", s.ID, team))
		}
	}

	if req.Mode == model.ModeQuota {
		for name, want := range req.Quotas {
			if got := perCategory[name]; got < want {
				errs = append(errs, fmt.Errorf("category %s has %d teams, quota is %d", name, got, want))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTeams, errors.Join(errs...))
}
