package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/relay/internal/adapters/milp"
	service "github.com/okian/relay/internal/app"
	"github.com/okian/relay/internal/domain/assign"
	"github.com/okian/relay/internal/domain/model"
	"github.com/okian/relay/internal/domain/quota"
	"github.com/okian/relay/internal/domain/roster"
	"github.com/okian/relay/internal/samples"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleDoc(table []model.Category) roster.Document {
	return roster.Dataset{Swimmers: samples.Swimmers(), Categories: table}.Document()
}

// blockingEngine parks every solve until ctx ends or release is closed.
func blockingEngine(entered chan<- struct{}, release <-chan struct{}) milp.Engine {
	return milp.EngineFunc(func(ctx context.Context, _ *milp.Model) (milp.Solution, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-ctx.Done():
		case <-release:
		}
		return milp.Solution{Status: milp.StatusCancelled}, nil
	})
}

func TestService_Dataset(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("Without a dataset, optimizing fails", func() {
			_, err := svc.Optimize(ctx, model.Request{Mode: model.ModeBalance})
			So(errors.Is(err, roster.ErrNoDataset), ShouldBeTrue)
			So(service.StatusMessage(err), ShouldEqual, "no dataset loaded")
			So(service.StatusLabel(err), ShouldEqual, "no_dataset")
		})

		Convey("An invalid dataset is rejected with every violation", func() {
			doc := sampleDoc(samples.Categories25m())
			doc.Swimmers[0].Age = 0
			doc.Swimmers[1].Gender = "X"
			_, err := svc.LoadDataset(ctx, doc)

			var verr *roster.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(len(verr.Violations), ShouldEqual, 2)
			_, err = svc.Dataset(ctx)
			So(errors.Is(err, roster.ErrNoDataset), ShouldBeTrue)
		})

		Convey("A valid dataset becomes current", func() {
			snap, err := svc.LoadDataset(ctx, sampleDoc(samples.Categories25m()))
			So(err, ShouldBeNil)
			So(snap.Version, ShouldNotBeEmpty)

			cur, err := svc.Dataset(ctx)
			So(err, ShouldBeNil)
			So(cur.Version, ShouldEqual, snap.Version)
			So(cur.Dataset.Swimmers, ShouldHaveLength, 10)

			stats := svc.GetStats()
			So(stats["datasetVersion"], ShouldEqual, snap.Version)
			So(stats["swimmers"], ShouldEqual, 10)
			So(stats["started"], ShouldBeFalse)
		})
	})
}

func TestService_Optimize(t *testing.T) {
	Convey("Given the sample roster with the 25m table", t, func() {
		ctx := context.Background()
		svc := service.New()
		snap, err := svc.LoadDataset(ctx, sampleDoc(samples.Categories25m()))
		So(err, ShouldBeNil)

		Convey("When one team of ten is requested", func() {
			report, err := svc.Optimize(ctx, model.Request{Mode: model.ModeMinimizeTotal, TeamSize: 10, MinWomen: 2})
			So(err, ShouldBeNil)

			Convey("Then everyone swims in category B", func() {
				So(report.Message, ShouldEqual, "optimal solution found")
				So(report.Teams, ShouldHaveLength, 1)
				So(report.Teams[0].Category, ShouldEqual, "B")
				So(report.Teams[0].AgeSum, ShouldEqual, 305)
				So(report.Objective, ShouldAlmostEqual, 330, 1e-6)
				So(report.Rows, ShouldHaveLength, 10)
				So(report.Unassigned, ShouldBeEmpty)
			})

			Convey("Then the report is stamped", func() {
				So(report.RunID, ShouldNotBeEmpty)
				So(report.Mode, ShouldEqual, model.ModeMinimizeTotal)
				So(report.DatasetVersion, ShouldEqual, snap.Version)
				So(report.Summary.Teams, ShouldEqual, 1)
				So(report.Summary.Assigned, ShouldEqual, 10)
				So(report.Summary.Categories["B"], ShouldEqual, 1)
			})
		})

		Convey("When the mode is given as an alias", func() {
			report, err := svc.Optimize(ctx, model.Request{Mode: "total", TeamSize: 10, MinWomen: 2})
			So(err, ShouldBeNil)
			So(report.Mode, ShouldEqual, model.ModeMinimizeTotal)
		})

		Convey("When team size and women are omitted the defaults apply", func() {
			_, err := svc.LoadDataset(ctx, sampleDoc(samples.Categories50m()))
			So(err, ShouldBeNil)
			report, err := svc.Optimize(ctx, model.Request{Mode: model.ModeBalance})
			So(err, ShouldBeNil)
			for _, team := range report.Teams {
				So(team.Members, ShouldHaveLength, 4)
				So(team.Women(), ShouldBeGreaterThanOrEqualTo, 1)
			}
			So(report.Summary.Assigned+report.Summary.Unassigned, ShouldEqual, 10)
		})

		Convey("When requests are malformed", func() {
			cases := []model.Request{
				{},
				{Mode: "sideways"},
				{Mode: model.ModeBalance, TeamSize: 1},
				{Mode: model.ModeBalance, TeamSize: 4, MinWomen: 5},
				{Mode: model.ModeQuota, TeamSize: 5, MinWomen: 1},
				{Mode: model.ModeQuota, TeamSize: 5, MinWomen: 1, Quotas: map[string]int{"B": 0}},
			}
			for _, req := range cases {
				_, err := svc.Optimize(ctx, req)
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(service.StatusLabel(err), ShouldEqual, "invalid")
			}

			_, err := svc.Optimize(ctx, model.Request{Mode: model.ModeQuota, TeamSize: 5, MinWomen: 1, Quotas: map[string]int{"Z": 1}})
			So(errors.Is(err, quota.ErrUnknownCategory), ShouldBeTrue)
			_, err = svc.Optimize(ctx, model.Request{Mode: model.ModeQuota, TeamSize: 5, MinWomen: 1, Quotas: map[string]int{"B": -1}})
			So(errors.Is(err, quota.ErrInvalidQuota), ShouldBeTrue)
		})

		Convey("When no team can reach a category", func() {
			_, err := svc.Optimize(ctx, model.Request{Mode: model.ModeMinimizeTotal, TeamSize: 5, MinWomen: 1})
			So(errors.Is(err, assign.ErrNonOptimal), ShouldBeTrue)
			So(service.StatusMessage(err), ShouldEqual, "no optimal solution")
		})

		So(svc.GetStats()["optimizations"], ShouldBeGreaterThan, 0)
	})
}

func TestService_Quota(t *testing.T) {
	Convey("Given the sample roster with the 50m table", t, func() {
		ctx := context.Background()
		svc := service.New()
		_, err := svc.LoadDataset(ctx, sampleDoc(samples.Categories50m()))
		So(err, ShouldBeNil)

		Convey("When one category B team of five is requested", func() {
			report, err := svc.Optimize(ctx, model.Request{
				Mode: model.ModeQuota, TeamSize: 5, MinWomen: 1,
				Quotas: map[string]int{"B": 1},
			})
			So(err, ShouldBeNil)

			Convey("Then the quota team comes first and the rest overflow", func() {
				So(report.QuotaBuilt["B"], ShouldEqual, 1)
				So(report.Teams, ShouldHaveLength, 2)
				So(report.Teams[0].Category, ShouldEqual, "B")
				So(report.Teams[0].TimeSum, ShouldEqual, 158)
				So(report.Objective, ShouldAlmostEqual, 330, 1e-6)
				So(report.Warnings, ShouldBeEmpty)
				So(report.Summary.Unassigned, ShouldEqual, 0)
			})
		})

		Convey("When a quota cannot be met", func() {
			_, err := svc.Optimize(ctx, model.Request{
				Mode: model.ModeQuota, TeamSize: 5, MinWomen: 1,
				Quotas: map[string]int{"A": 1},
			})

			Convey("Then the category is named in the message", func() {
				var abort *quota.AbortError
				So(errors.As(err, &abort), ShouldBeTrue)
				So(abort.Category, ShouldEqual, "A")
				So(service.StatusLabel(err), ShouldEqual, "quota_aborted")
				So(service.StatusMessage(err), ShouldStartWith, "could not form a valid team for category A")
			})
		})
	})
}

func TestService_Limits(t *testing.T) {
	Convey("Given a service whose engine never finishes", t, func() {
		ctx := context.Background()
		entered := make(chan struct{}, 1)
		release := make(chan struct{})
		svc := service.New(
			service.WithEngine(blockingEngine(entered, release)),
			service.WithSolverTimeout(50*time.Millisecond),
		)
		_, err := svc.LoadDataset(ctx, sampleDoc(samples.Categories25m()))
		So(err, ShouldBeNil)

		Convey("The solver timeout is reported as such", func() {
			_, err := svc.Optimize(ctx, model.Request{Mode: model.ModeBalance})
			So(errors.Is(err, assign.ErrSolverTimeout), ShouldBeTrue)
			So(service.StatusMessage(err), ShouldEqual, "solver timed out")
			So(service.StatusLabel(err), ShouldEqual, "timeout")
		})

		Convey("A second caller waits and gives up as busy", func() {
			done := make(chan error, 1)
			go func() {
				_, err := svc.Optimize(ctx, model.Request{Mode: model.ModeBalance})
				done <- err
			}()
			<-entered

			wctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()
			_, err := svc.Optimize(wctx, model.Request{Mode: model.ModeBalance})
			So(errors.Is(err, service.ErrBusy), ShouldBeTrue)
			So(service.StatusMessage(err), ShouldEqual, "optimizer is busy")

			close(release)
			So(<-done, ShouldNotBeNil)
		})
	})
}

func waitDone(ctx context.Context, svc *service.Service, id string) model.Job {
	deadline := time.Now().Add(10 * time.Second)
	for {
		job, err := svc.Job(ctx, id)
		if err == nil && job.State.Done() || time.Now().After(deadline) {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestService_Jobs(t *testing.T) {
	Convey("Given a service with the sample dataset", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithQueueSize(4))
		_, err := svc.LoadDataset(ctx, sampleDoc(samples.Categories25m()))
		So(err, ShouldBeNil)

		Convey("Jobs are refused before Start", func() {
			_, _, err := svc.Submit(ctx, "", model.Request{Mode: model.ModeBalance})
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("A submitted job runs to completion", func() {
				job, dup, err := svc.Submit(ctx, "", model.Request{Mode: model.ModeMinimizeTotal, TeamSize: 10, MinWomen: 2})
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(job.State, ShouldEqual, model.JobQueued)

				done := waitDone(ctx, svc, job.ID)
				So(done.State, ShouldEqual, model.JobSucceeded)
				So(done.Report, ShouldNotBeNil)
				So(done.Report.Teams[0].Category, ShouldEqual, "B")
				So(done.Message, ShouldEqual, "optimal solution found")
			})

			Convey("A failing job records its message", func() {
				job, _, err := svc.Submit(ctx, "", model.Request{Mode: model.ModeMinimizeTotal, TeamSize: 5, MinWomen: 1})
				So(err, ShouldBeNil)
				done := waitDone(ctx, svc, job.ID)
				So(done.State, ShouldEqual, model.JobFailed)
				So(done.Message, ShouldEqual, "no optimal solution")
			})

			Convey("An idempotency key returns the first job", func() {
				first, dup, err := svc.Submit(ctx, "key-1", model.Request{Mode: model.ModeBalance})
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				second, dup, err := svc.Submit(ctx, "key-1", model.Request{Mode: model.ModeBalance})
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(second.ID, ShouldEqual, first.ID)
				waitDone(ctx, svc, first.ID)

				recent, err := svc.RecentJobs(ctx, 10)
				So(err, ShouldBeNil)
				So(recent, ShouldHaveLength, 1)
			})

			Convey("Invalid requests never reach the queue", func() {
				_, _, err := svc.Submit(ctx, "k", model.Request{Mode: model.ModeBalance, TeamSize: 1})
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
				So(svc.GetStats()["jobs"], ShouldEqual, 0)
			})

			Convey("Unknown jobs are not found", func() {
				_, err := svc.Job(ctx, "missing")
				So(errors.Is(err, service.ErrJobNotFound), ShouldBeTrue)
			})
		})
	})
}
