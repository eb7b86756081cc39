package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/arena/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When an id is recorded", func() {
			So(d.SeenAndRecord(ctx, "replay-1"), ShouldBeFalse)

			Convey("Then it is seen on the second call", func() {
				So(d.SeenAndRecord(ctx, "replay-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And unrecording allows it again", func() {
				d.Unrecord(ctx, "replay-1")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "replay-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d.Unrecord(ctx, "nonexistent")
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("When the empty id is recorded", func() {
			So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, ""), ShouldBeTrue)
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"r1", "r2", "r3", "r4"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("Then the oldest id is forgotten first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "r4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "r3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "r2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "r1"), ShouldBeFalse)
		})

		Convey("When an id in the middle is unrecorded", func() {
			d.Unrecord(ctx, "r3")
			So(d.Size(), ShouldEqual, 2)

			Convey("Then the freed slot is reused in ring order", func() {
				So(d.SeenAndRecord(ctx, "r5"), ShouldBeFalse) // overwrites r2's slot
				So(d.SeenAndRecord(ctx, "r6"), ShouldBeFalse) // takes the freed slot
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "r4"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a non-positive max size", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))

		Convey("Then the default bound applies", func() {
			for i := 0; i < dedupe.DefaultMaxSize+10; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("r%d", i))
			}
			So(d.Size(), ShouldEqual, dedupe.DefaultMaxSize)
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers, perWorker = 10, 100

		Convey("When every goroutine records distinct ids", func() {
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("r-%d-%d", w, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then all of them are recorded", func() {
				So(d.Size(), ShouldEqual, int64(workers*perWorker))
			})
		})

		Convey("When goroutines race on the same id", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(context.Background(), "shared") {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one wins", func() {
				So(fresh, ShouldEqual, 1)
			})
		})
	})
}
