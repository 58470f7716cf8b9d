package model_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/relay/internal/domain/model"
)

func TestParse(t *testing.T) {
	convey.Convey("Given raw labels", t, func() {
		convey.Convey("Modes accept their aliases", func() {
			for raw, want := range map[string]model.Mode{
				"minimize-total": model.ModeMinimizeTotal,
				" Total ":        model.ModeMinimizeTotal,
				"balanced":       model.ModeBalance,
				"BY-CATEGORY":    model.ModeQuota,
			} {
				got, err := model.ParseMode(raw)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, want)
			}
			_, err := model.ParseMode("fastest")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Genders are case-insensitive", func() {
			g, err := model.ParseGender(" f ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(g.IsFemale(), convey.ShouldBeTrue)
			_, err = model.ParseGender("x")
			convey.So(err, convey.ShouldWrap, model.ErrUnknownGender)
		})
	})
}

func TestCategories(t *testing.T) {
	convey.Convey("Given overlapping categories", t, func() {
		table := []model.Category{
			{Name: "A", MinAge: 100, MaxAge: 200},
			{Name: "B", MinAge: 150, MaxAge: 300},
		}

		convey.Convey("The earlier entry wins", func() {
			convey.So(model.ResolveCategory(table, 150), convey.ShouldEqual, "A")
			convey.So(model.ResolveCategory(table, 250), convey.ShouldEqual, "B")
			convey.So(model.ResolveCategory(table, 200.5), convey.ShouldEqual, "B")
		})

		convey.Convey("Sums outside every range are uncategorized", func() {
			convey.So(model.ResolveCategory(table, 99), convey.ShouldEqual, model.Uncategorized)
			convey.So(model.ResolveCategory(nil, 150), convey.ShouldEqual, model.Uncategorized)
		})

		convey.Convey("The envelope spans the table", func() {
			lo, hi, ok := model.Envelope(table)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(lo, convey.ShouldEqual, 100)
			convey.So(hi, convey.ShouldEqual, 300)
			_, _, ok = model.Envelope(nil)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Categories are found by name", func() {
			c, ok := model.FindCategory(table, "B")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(c.MinAge, convey.ShouldEqual, 150)
			_, ok = model.FindCategory(table, "C")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestTeams(t *testing.T) {
	convey.Convey("Given two teams", t, func() {
		fast := model.NewTeam(1, "A", []model.Swimmer{
			{ID: "0", Age: 30, Time: 30, Gender: model.Female},
			{ID: "1", Age: 40, Time: 31, Gender: model.Male},
		})
		slow := model.NewTeam(2, "B", []model.Swimmer{
			{ID: "2", Age: 50, Time: 35, Gender: model.Female},
			{ID: "3", Age: 60, Time: 36, Gender: model.Female},
		})

		convey.So(fast.AgeSum, convey.ShouldEqual, 70)
		convey.So(fast.TimeSum, convey.ShouldEqual, 61)
		convey.So(slow.Women(), convey.ShouldEqual, 2)

		convey.Convey("Rows flatten in team order", func() {
			rows := model.Rows([]model.Team{fast, slow})
			convey.So(len(rows), convey.ShouldEqual, 4)
			convey.So(rows[2].Team, convey.ShouldEqual, 2)
			convey.So(rows[2].ID, convey.ShouldEqual, "2")
			convey.So(rows[2].TeamTimeSum, convey.ShouldEqual, 71)
		})

		convey.Convey("The summary covers the roster", func() {
			s := model.Summarize([]model.Team{fast, slow}, 5)
			convey.So(s.Assigned, convey.ShouldEqual, 4)
			convey.So(s.Unassigned, convey.ShouldEqual, 1)
			convey.So(s.TotalTime, convey.ShouldEqual, 132)
			convey.So(s.Spread, convey.ShouldEqual, 10)
			convey.So(s.Categories, convey.ShouldResemble, map[string]int{"A": 1, "B": 1})
		})

		convey.Convey("An empty result leaves everyone unassigned", func() {
			s := model.Summarize(nil, 5)
			convey.So(s.Unassigned, convey.ShouldEqual, 5)
			convey.So(s.Spread, convey.ShouldEqual, 0)
		})
	})
}

func TestJobState(t *testing.T) {
	convey.Convey("Only succeeded and failed are terminal", t, func() {
		convey.So(model.JobQueued.Done(), convey.ShouldBeFalse)
		convey.So(model.JobRunning.Done(), convey.ShouldBeFalse)
		convey.So(model.JobSucceeded.Done(), convey.ShouldBeTrue)
		convey.So(model.JobFailed.Done(), convey.ShouldBeTrue)
	})
}
