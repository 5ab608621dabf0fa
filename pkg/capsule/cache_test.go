package capsule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// countingSource counts underlying fetches and can be made slow or failing.
type countingSource struct {
	fetches int64
	delay   time.Duration
	fail    atomic.Bool
}

func (s *countingSource) Fetch(ctx context.Context, constructID string) (*Capsule, error) {
	atomic.AddInt64(&s.fetches, 1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fail.Load() {
		return nil, errors.New("store offline")
	}
	return &Capsule{Metadata: Metadata{InstanceName: constructID}}, nil
}

func TestCacheHitsAndMisses(t *testing.T) {
	Convey("Given a cold cache", t, func() {
		source := &countingSource{}
		cache := NewCache(source, 4)

		Convey("When the same construct is loaded twice", func() {
			first, err1 := cache.Load(context.Background(), "vex")
			second, err2 := cache.Load(context.Background(), "vex")

			Convey("The first load misses and the second hits", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldEqual, second)

				stats := cache.Stats()
				So(stats.Misses, ShouldEqual, 1)
				So(stats.Hits, ShouldEqual, 1)
				So(stats.TotalLoads, ShouldEqual, 1)
				So(stats.Size, ShouldEqual, 1)
			})
		})
	})
}

func TestCacheSingleFlight(t *testing.T) {
	Convey("Given a cold cache with a slow source", t, func() {
		source := &countingSource{delay: 50 * time.Millisecond}
		cache := NewCache(source, 4)

		Convey("When many callers load the same construct concurrently", func() {
			const callers = 16

			var wg sync.WaitGroup
			results := make([]*Capsule, callers)
			errs := make([]error, callers)

			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = cache.Load(context.Background(), "vex")
				}(i)
			}
			wg.Wait()

			Convey("Exactly one fetch runs and all callers share its result", func() {
				So(atomic.LoadInt64(&source.fetches), ShouldEqual, 1)
				for i := 0; i < callers; i++ {
					So(errs[i], ShouldBeNil)
					So(results[i], ShouldEqual, results[0])
				}
				So(cache.Stats().TotalLoads, ShouldEqual, 1)
			})
		})
	})
}

func TestCacheLRUEviction(t *testing.T) {
	Convey("Given a cache filled to capacity", t, func() {
		source := &countingSource{}
		cache := NewCache(source, 3)

		ctx := context.Background()
		for _, id := range []string{"a", "b", "c"} {
			_, err := cache.Load(ctx, id)
			So(err, ShouldBeNil)
		}

		Convey("When the oldest-loaded entry is re-accessed before inserting a new one", func() {
			// Touch "a" so the least-recently-used entry is now "b".
			_, err := cache.Load(ctx, "a")
			So(err, ShouldBeNil)

			before := atomic.LoadInt64(&source.fetches)
			_, err = cache.Load(ctx, "d")
			So(err, ShouldBeNil)

			Convey("The least-recently-accessed entry is evicted, not the oldest-loaded", func() {
				So(cache.Stats().Size, ShouldEqual, 3)

				// "a" and "c" survive: loading them again is a hit, no fetch.
				_, _ = cache.Load(ctx, "a")
				_, _ = cache.Load(ctx, "c")
				So(atomic.LoadInt64(&source.fetches), ShouldEqual, before+1)

				// "b" was evicted: loading it fetches again.
				_, _ = cache.Load(ctx, "b")
				So(atomic.LoadInt64(&source.fetches), ShouldEqual, before+2)
			})
		})
	})
}

func TestCacheLoadFailure(t *testing.T) {
	Convey("Given a source that is temporarily offline", t, func() {
		source := &countingSource{}
		source.fail.Store(true)
		cache := NewCache(source, 4)

		Convey("When a load fails", func() {
			_, err := cache.Load(context.Background(), "vex")

			Convey("The error reaches the caller and nothing is cached", func() {
				So(err, ShouldNotBeNil)
				So(cache.Stats().Size, ShouldEqual, 0)
				So(cache.Stats().TotalLoads, ShouldEqual, 0)
			})

			Convey("And a later load retries the fetch and succeeds", func() {
				source.fail.Store(false)

				capsule, err := cache.Load(context.Background(), "vex")
				So(err, ShouldBeNil)
				So(capsule.Metadata.InstanceName, ShouldEqual, "vex")
				So(cache.Stats().Size, ShouldEqual, 1)
			})
		})
	})
}

func TestCacheClearKeepsCounters(t *testing.T) {
	Convey("Given a cache with traffic", t, func() {
		source := &countingSource{}
		cache := NewCache(source, 4)

		ctx := context.Background()
		_, _ = cache.Load(ctx, "a")
		_, _ = cache.Load(ctx, "a")

		Convey("When the cache is cleared", func() {
			cache.Clear()

			Convey("Entries are gone but the global counters survive", func() {
				stats := cache.Stats()
				So(stats.Size, ShouldEqual, 0)
				So(stats.Hits, ShouldEqual, 1)
				So(stats.Misses, ShouldEqual, 1)
				So(stats.TotalLoads, ShouldEqual, 1)
			})

			Convey("And ResetStats zeroes them", func() {
				cache.ResetStats()

				stats := cache.Stats()
				So(stats.Hits, ShouldEqual, 0)
				So(stats.Misses, ShouldEqual, 0)
				So(stats.TotalLoads, ShouldEqual, 0)
			})
		})
	})
}

func TestCacheStatsAvgLoadTime(t *testing.T) {
	Convey("Given a cache with a measurably slow source", t, func() {
		source := &countingSource{delay: 10 * time.Millisecond}
		cache := NewCache(source, 8)

		ctx := context.Background()
		for i := 0; i < 3; i++ {
			_, err := cache.Load(ctx, fmt.Sprintf("construct-%d", i))
			So(err, ShouldBeNil)
		}

		Convey("The average load time reflects the fetch latency", func() {
			stats := cache.Stats()
			So(stats.TotalLoads, ShouldEqual, 3)
			So(stats.AvgLoadTime, ShouldBeGreaterThanOrEqualTo, 10*time.Millisecond)
		})
	})
}
