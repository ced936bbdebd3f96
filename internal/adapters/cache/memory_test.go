package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		m := NewMemory[string](WithRetention(0))
		Reset(func() { _ = m.Close() })

		Convey("a miss reports not found", func() {
			_, ok, err := m.Get(ctx, "L1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Put publishes one entry per league", func() {
			t0 := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
			So(m.Put(ctx, Entry[string]{Key: Key{DataVersion: "v1", LeagueID: "L1"}, Value: "a", StoredAt: t0}), ShouldBeNil)
			So(m.Put(ctx, Entry[string]{Key: Key{DataVersion: "v2", LeagueID: "L1"}, Value: "b", StoredAt: t0.Add(time.Minute)}), ShouldBeNil)

			e, ok, err := m.Get(ctx, "L1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(e.Value, ShouldEqual, "b")
			So(e.Key.DataVersion, ShouldEqual, "v2")
			So(m.Len(), ShouldEqual, 1)

			Convey("an older entry does not replace a newer one", func() {
				So(m.Put(ctx, Entry[string]{Key: Key{DataVersion: "v0", LeagueID: "L1"}, Value: "old", StoredAt: t0}), ShouldBeNil)
				e, _, _ := m.Get(ctx, "L1")
				So(e.Value, ShouldEqual, "b")
			})
		})

		Convey("the default league is stored under its own key", func() {
			So(m.Put(ctx, Entry[string]{Key: Key{DataVersion: "v1"}, Value: "unowned"}), ShouldBeNil)
			e, ok, _ := m.Get(ctx, "")
			So(ok, ShouldBeTrue)
			So(e.Value, ShouldEqual, "unowned")
			So(e.StoredAt.IsZero(), ShouldBeFalse)
		})

		Convey("Put after Close fails", func() {
			So(m.Close(), ShouldBeNil)
			So(m.Close(), ShouldBeNil)
			err := m.Put(ctx, Entry[string]{Key: Key{LeagueID: "L1"}})
			So(err, ShouldEqual, ErrClosed)
		})
	})
}

func TestMemoryEvict(t *testing.T) {
	Convey("Entries past retention are swept", t, func() {
		ctx := context.Background()
		m := NewMemory[int](WithRetention(time.Hour), WithEvictInterval(time.Hour))
		Reset(func() { _ = m.Close() })

		now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return now }

		So(m.Put(ctx, Entry[int]{Key: Key{LeagueID: "old"}, Value: 1, StoredAt: now.Add(-2 * time.Hour)}), ShouldBeNil)
		So(m.Put(ctx, Entry[int]{Key: Key{LeagueID: "fresh"}, Value: 2, StoredAt: now.Add(-time.Minute)}), ShouldBeNil)

		m.evict()

		_, ok, _ := m.Get(ctx, "old")
		So(ok, ShouldBeFalse)
		e, ok, _ := m.Get(ctx, "fresh")
		So(ok, ShouldBeTrue)
		So(e.Value, ShouldEqual, 2)
	})
}

func TestMemoryConcurrentPut(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int](WithRetention(0))
	defer m.Close()

	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Put(ctx, Entry[int]{Key: Key{LeagueID: "L"}, Value: i, StoredAt: base.Add(time.Duration(i) * time.Second)})
		}(i)
	}
	wg.Wait()

	e, ok, err := m.Get(ctx, "L")
	if err != nil || !ok {
		t.Fatalf("expected entry, ok=%v err=%v", ok, err)
	}
	if e.Value != 50 {
		t.Fatalf("expected newest entry 50, got %d", e.Value)
	}
}
