package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/relay/internal/adapters/mq/queue"
	"github.com/okian/relay/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func job(id string) queue.Job {
	return queue.Job{ID: id, State: model.JobQueued, Request: model.Request{Mode: model.ModeBalance}}
}

func TestInMemoryQueue(t *testing.T) {
	convey.Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		convey.Convey("It starts empty", func() {
			convey.So(q.Len(ctx), convey.ShouldEqual, 0)
			convey.So(q.IsClosed(), convey.ShouldBeFalse)
		})

		convey.Convey("Jobs come out in order", func() {
			convey.So(q.Enqueue(ctx, job("a")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, job("b")), convey.ShouldBeNil)
			convey.So(q.Len(ctx), convey.ShouldEqual, 2)

			ch := q.Dequeue(ctx)
			convey.So((<-ch).ID, convey.ShouldEqual, "a")
			convey.So((<-ch).ID, convey.ShouldEqual, "b")
			convey.So(q.Len(ctx), convey.ShouldEqual, 0)
		})

		convey.Convey("A full queue rejects without blocking", func() {
			convey.So(q.Enqueue(ctx, job("a")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, job("b")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, job("c")), convey.ShouldEqual, queue.ErrFull)
			convey.So(q.Len(ctx), convey.ShouldEqual, 2)
		})

		convey.Convey("A cancelled context is refused", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			convey.So(q.Enqueue(cctx, job("a")), convey.ShouldEqual, context.Canceled)
		})

		convey.Convey("Close drains then ends the channel", func() {
			convey.So(q.Enqueue(ctx, job("a")), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, job("b")), convey.ShouldEqual, queue.ErrClosed)

			var got []string
			for j := range q.Dequeue(ctx) {
				got = append(got, j.ID)
			}
			convey.So(got, convey.ShouldResemble, []string{"a"})
		})
	})
}

func TestInMemoryQueueConcurrentProducers(t *testing.T) {
	convey.Convey("Concurrent producers never exceed capacity", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(50))

		var wg sync.WaitGroup
		var mu sync.Mutex
		accepted := 0
		for p := 0; p < 10; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					if q.Enqueue(ctx, job(fmt.Sprintf("%d-%d", p, i))) == nil {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}
			}(p)
		}
		wg.Wait()

		convey.So(accepted, convey.ShouldEqual, 50)
		convey.So(q.Len(ctx), convey.ShouldEqual, 50)
	})
}
