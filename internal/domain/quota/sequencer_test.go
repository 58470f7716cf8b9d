package quota_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/okian/relay/internal/adapters/milp"
	"github.com/okian/relay/internal/domain/assign"
	"github.com/okian/relay/internal/domain/feasibility"
	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/internal/domain/quota"
	"github.com/okian/relay/internal/samples"
	"github.com/smartystreets/goconvey/convey"
)

// countingEngine wraps the real engine and counts solves.
func countingEngine(calls *atomic.Int32) milp.Engine {
	bb := milp.NewBranchAndBound()
	return milp.EngineFunc(func(ctx context.Context, m *milp.Model) (milp.Solution, error) {
		calls.Add(1)
		return bb.Solve(ctx, m)
	})
}

func ids(teams []model.Team) map[string]int {
	out := make(map[string]int)
	for _, t := range teams {
		for _, m := range t.Members {
			out[m.ID]++
		}
	}
	return out
}

func TestQuotaAbortBeforeSolve(t *testing.T) {
	convey.Convey("Given a four-swimmer pool and a category no pair can reach", t, func() {
		roster := []model.Swimmer{
			{ID: "0", Age: 20, Time: 30, Gender: model.Female},
			{ID: "1", Age: 21, Time: 31, Gender: model.Male},
			{ID: "2", Age: 22, Time: 32, Gender: model.Female},
			{ID: "3", Age: 23, Time: 33, Gender: model.Male},
		}
		table := []model.Category{
			{Name: "young", MinAge: 0, MaxAge: 40},
			{Name: "senior", MinAge: 100, MaxAge: 200},
		}
		var calls atomic.Int32
		seq := quota.NewSequencer(countingEngine(&calls))

		convey.Convey("When one senior team is requested", func() {
			out, err := seq.Run(context.Background(), roster, table, quota.Request{
				TeamSize: 2,
				MinWomen: 1,
				Quotas:   map[string]int{"senior": 1},
			})

			convey.Convey("Then the run aborts on the age check without solving", func() {
				var abort *quota.AbortError
				convey.So(errors.As(err, &abort), convey.ShouldBeTrue)
				convey.So(abort.Category, convey.ShouldEqual, "senior")
				convey.So(abort.Completed, convey.ShouldEqual, 0)
				convey.So(errors.Is(err, feasibility.ErrNoAgeCombination), convey.ShouldBeTrue)
				convey.So(errors.Is(err, quota.ErrQuotaInfeasible), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "no age-sum combination possible")
				convey.So(calls.Load(), convey.ShouldEqual, 0)
				convey.So(out.Teams, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestQuotaWithOverflow(t *testing.T) {
	convey.Convey("Given the sample roster and the 50m table", t, func() {
		roster := samples.Swimmers()
		table := samples.Categories50m()
		var calls atomic.Int32
		seq := quota.NewSequencer(countingEngine(&calls))

		convey.Convey("When one category B team of five is requested", func() {
			out, err := seq.Run(context.Background(), roster, table, quota.Request{
				TeamSize: 5,
				MinWomen: 1,
				Quotas:   map[string]int{"B": 1, "A": 0},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the fastest valid five form the quota team", func() {
				convey.So(out.QuotaTeams, convey.ShouldEqual, 1)
				convey.So(out.Built["B"], convey.ShouldEqual, 1)
				quotaTeam := out.Teams[0]
				convey.So(quotaTeam.Number, convey.ShouldEqual, 1)
				convey.So(quotaTeam.Category, convey.ShouldEqual, "B")
				convey.So(quotaTeam.TimeSum, convey.ShouldEqual, 158)
			})

			convey.Convey("Then the leftovers form one overflow team", func() {
				convey.So(out.OverflowTeams, convey.ShouldEqual, 1)
				convey.So(out.OverflowErr, convey.ShouldBeNil)
				convey.So(out.Teams, convey.ShouldHaveLength, 2)
				convey.So(out.Teams[1].Number, convey.ShouldEqual, 2)
				convey.So(out.Unassigned, convey.ShouldBeEmpty)
				convey.So(calls.Load(), convey.ShouldEqual, 2)
			})

			convey.Convey("Then no swimmer appears twice", func() {
				for _, n := range ids(out.Teams) {
					convey.So(n, convey.ShouldEqual, 1)
				}
				convey.So(ids(out.Teams), convey.ShouldHaveLength, 10)
			})
		})

		convey.Convey("When two category B teams are requested", func() {
			out, err := seq.Run(context.Background(), roster, table, quota.Request{
				TeamSize: 5,
				MinWomen: 1,
				Quotas:   map[string]int{"B": 2},
			})

			convey.Convey("Then both come from disjoint pools and nothing overflows", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.QuotaTeams, convey.ShouldEqual, 2)
				convey.So(out.OverflowTeams, convey.ShouldEqual, 0)
				convey.So(out.Teams, convey.ShouldHaveLength, 2)
				convey.So(ids(out.Teams), convey.ShouldHaveLength, 10)
				for _, team := range out.Teams {
					convey.So(team.Category, convey.ShouldEqual, "B")
					convey.So(team.Women(), convey.ShouldBeGreaterThanOrEqualTo, 1)
				}
			})
		})

		convey.Convey("When no quota is set", func() {
			out, err := seq.Run(context.Background(), roster, table, quota.Request{
				TeamSize: 5,
				MinWomen: 1,
			})

			convey.Convey("Then the whole roster goes to overflow", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.QuotaTeams, convey.ShouldEqual, 0)
				convey.So(out.OverflowTeams, convey.ShouldEqual, 2)
			})
		})
	})
}

func TestQuotaOverflowFailureKeepsQuotaTeams(t *testing.T) {
	convey.Convey("Given a pool whose leftovers are all men", t, func() {
		roster := []model.Swimmer{
			{ID: "w", Age: 30, Time: 30, Gender: model.Female},
			{ID: "m1", Age: 30, Time: 31, Gender: model.Male},
			{ID: "m2", Age: 30, Time: 32, Gender: model.Male},
			{ID: "m3", Age: 30, Time: 33, Gender: model.Male},
		}
		table := []model.Category{{Name: "X", MinAge: 0, MaxAge: 65}, {Name: "Y", MinAge: 66, MaxAge: 200}}
		seq := quota.NewSequencer(milp.NewBranchAndBound())

		convey.Convey("When one X pair is requested", func() {
			out, err := seq.Run(context.Background(), roster, table, quota.Request{
				TeamSize: 2,
				MinWomen: 1,
				Quotas:   map[string]int{"X": 1},
			})

			convey.Convey("Then the quota team survives and the overflow error is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.Teams, convey.ShouldHaveLength, 1)
				convey.So(out.Teams[0].TimeSum, convey.ShouldEqual, 61)
				convey.So(errors.Is(out.OverflowErr, assign.ErrNonOptimal), convey.ShouldBeTrue)
				convey.So(out.Unassigned, convey.ShouldHaveLength, 2)
				convey.So(out.Unassigned[0].ID, convey.ShouldEqual, "m2")
			})
		})
	})
}

func TestQuotaRejections(t *testing.T) {
	convey.Convey("Given the sample roster", t, func() {
		roster := samples.Swimmers()
		seq := quota.NewSequencer(milp.NewBranchAndBound())

		convey.Convey("When a later category cannot be met", func() {
			// four-swimmer teams sum to at most 138; D needs 235
			out, err := seq.Run(context.Background(), roster, samples.Categories50m(), quota.Request{
				TeamSize: 4,
				MinWomen: 1,
				Quotas:   map[string]int{"A": 1, "D": 1},
			})

			convey.Convey("Then the completed team is discarded with the run", func() {
				var abort *quota.AbortError
				convey.So(errors.As(err, &abort), convey.ShouldBeTrue)
				convey.So(abort.Category, convey.ShouldEqual, "D")
				convey.So(abort.Completed, convey.ShouldEqual, 1)
				convey.So(out.Teams, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the requested category overlaps an earlier one", func() {
			table := []model.Category{
				{Name: "A", MinAge: 50, MaxAge: 70},
				{Name: "B", MinAge: 60, MaxAge: 80},
			}
			out, err := seq.Run(context.Background(), roster, table, quota.Request{
				TeamSize: 2,
				MinWomen: 1,
				Quotas:   map[string]int{"B": 1},
			})

			convey.Convey("Then the team keeps the requested label", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.Built["B"], convey.ShouldEqual, 1)
				convey.So(out.QuotaTeams, convey.ShouldEqual, 1)
				team := out.Teams[0]
				convey.So(team.Category, convey.ShouldEqual, "B")
				convey.So(team.AgeSum, convey.ShouldEqual, 64)
				convey.So(team.TimeSum, convey.ShouldEqual, 61)
				convey.So(model.ResolveCategory(table, team.AgeSum), convey.ShouldEqual, "A")
			})
		})

		convey.Convey("When a quota names an unknown category", func() {
			_, err := seq.Run(context.Background(), roster, samples.Categories25m(), quota.Request{
				TeamSize: 2,
				MinWomen: 1,
				Quotas:   map[string]int{"Z": 1},
			})

			convey.Convey("Then the request is rejected", func() {
				convey.So(errors.Is(err, quota.ErrUnknownCategory), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a quota is negative", func() {
			_, err := seq.Run(context.Background(), roster, samples.Categories25m(), quota.Request{
				TeamSize: 2,
				MinWomen: 1,
				Quotas:   map[string]int{"A": -1},
			})

			convey.Convey("Then the request is rejected", func() {
				convey.So(errors.Is(err, quota.ErrInvalidQuota), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := seq.Run(ctx, roster, samples.Categories50m(), quota.Request{
				TeamSize: 5,
				MinWomen: 1,
				Quotas:   map[string]int{"B": 1},
			})

			convey.Convey("Then the run reports a timeout", func() {
				convey.So(errors.Is(err, assign.ErrSolverTimeout), convey.ShouldBeTrue)
			})
		})
	})
}
