package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/relay/internal/adapters/repository"
	"github.com/okian/relay/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given a store holding at most 3 jobs", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore(repository.WithHistorySize(3))

		put := func(id string, state model.JobState) {
			So(s.Put(ctx, model.Job{ID: id, State: state}), ShouldBeNil)
		}

		Convey("Unknown ids are not found", func() {
			_, err := s.Get(ctx, "nope")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("A job without id is refused", func() {
			So(s.Put(ctx, model.Job{}), ShouldEqual, repository.ErrMissingID)
		})

		Convey("Put replaces by id", func() {
			put("a", model.JobQueued)
			put("a", model.JobSucceeded)
			j, err := s.Get(ctx, "a")
			So(err, ShouldBeNil)
			So(j.State, ShouldEqual, model.JobSucceeded)
			So(s.Count(ctx), ShouldEqual, 1)
		})

		Convey("The oldest finished job is evicted first", func() {
			put("a", model.JobSucceeded)
			put("b", model.JobFailed)
			put("c", model.JobSucceeded)
			put("d", model.JobQueued)

			So(s.Count(ctx), ShouldEqual, 3)
			_, err := s.Get(ctx, "a")
			So(err, ShouldEqual, repository.ErrNotFound)
			_, err = s.Get(ctx, "d")
			So(err, ShouldBeNil)
		})

		Convey("Active jobs survive eviction", func() {
			put("a", model.JobRunning)
			put("b", model.JobQueued)
			put("c", model.JobQueued)
			put("d", model.JobSucceeded)

			// d is the only finished job, so it goes.
			So(s.Count(ctx), ShouldEqual, 3)
			_, err := s.Get(ctx, "a")
			So(err, ShouldBeNil)
			_, err = s.Get(ctx, "d")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Recent lists newest first", func() {
			for i := 0; i < 3; i++ {
				put(fmt.Sprintf("j%d", i), model.JobSucceeded)
			}
			jobs, err := s.Recent(ctx, 2)
			So(err, ShouldBeNil)
			So(len(jobs), ShouldEqual, 2)
			So(jobs[0].ID, ShouldEqual, "j2")
			So(jobs[1].ID, ShouldEqual, "j1")

			_, err = s.Recent(ctx, 0)
			So(err, ShouldEqual, repository.ErrInvalidLimit)
		})

		Convey("Delete forgets the job", func() {
			put("a", model.JobQueued)
			s.Delete(ctx, "a")
			s.Delete(ctx, "a")
			So(s.Count(ctx), ShouldEqual, 0)
		})
	})
}
