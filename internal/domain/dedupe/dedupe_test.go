package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/relay/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("A new key binds to the offered job", func() {
			id, seen := d.Remember(ctx, "key-1", "job-1")
			So(seen, ShouldBeFalse)
			So(id, ShouldEqual, "job-1")
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("A repeated key returns the first job", func() {
			d.Remember(ctx, "key-1", "job-1")
			id, seen := d.Remember(ctx, "key-1", "job-2")
			So(seen, ShouldBeTrue)
			So(id, ShouldEqual, "job-1")
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("A forgotten key can be bound again", func() {
			d.Remember(ctx, "key-1", "job-1")
			d.Forget(ctx, "key-1")
			d.Forget(ctx, "key-1")
			So(d.Size(), ShouldEqual, 0)

			id, seen := d.Remember(ctx, "key-1", "job-2")
			So(seen, ShouldBeFalse)
			So(id, ShouldEqual, "job-2")
		})
	})

	Convey("Given a deduper bounded to 3 keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.Remember(ctx, fmt.Sprintf("k%d", i), fmt.Sprintf("j%d", i))
		}

		Convey("The oldest key is evicted first", func() {
			d.Remember(ctx, "k4", "j4")
			So(d.Size(), ShouldEqual, 3)

			_, seen := d.Remember(ctx, "k1", "again")
			So(seen, ShouldBeFalse)
			id, seen := d.Remember(ctx, "k4", "again")
			So(seen, ShouldBeTrue)
			So(id, ShouldEqual, "j4")
		})

		Convey("Forgetting the newest key keeps the order intact", func() {
			d.Forget(ctx, "k3")
			d.Remember(ctx, "k4", "j4")
			d.Remember(ctx, "k5", "j5")

			So(d.Size(), ShouldEqual, 3)
			_, seen := d.Remember(ctx, "k2", "x")
			So(seen, ShouldBeTrue)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 500; i++ {
			d.Remember(ctx, fmt.Sprintf("k%d", i), "j")
		}
		So(d.Size(), ShouldEqual, 500)
	})

	Convey("Concurrent callers agree on one job per key", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		results := make(chan string, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, _ := d.Remember(ctx, "shared", fmt.Sprintf("job-%d", i))
				results <- id
			}(i)
		}
		wg.Wait()
		close(results)

		first := ""
		for id := range results {
			if first == "" {
				first = id
			}
			So(id, ShouldEqual, first)
		}
		So(d.Size(), ShouldEqual, 1)
	})
}
