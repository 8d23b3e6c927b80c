package repository

import (
	"os"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/osupp/internal/domain/model"
	"github.com/okian/osupp/pkg/logger"
)

// TestMain initializes the global logger NewBeatmapCache resolves its
// default logger from.
func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestBeatmapCache_ConcurrentAccess(t *testing.T) {
	Convey("Given a beatmap cache with one preloaded entry", t, func() {
		table := model.NewAttributeTable()
		table.Add(1, model.AttrStrain)

		cache := NewBeatmapCache(nil, table, model.ModeStandard)
		cache.beatmaps[1] = model.NewBeatmap(1, 1, model.StatusRanked, 1, 0)

		Convey("concurrent readers never observe a torn or missing entry", func() {
			var wg sync.WaitGroup
			errs := make(chan string, 100)

			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					b, ok := cache.Get(1)
					if !ok || b == nil || b.ID != 1 {
						errs <- "reader observed missing or inconsistent entry"
					}
				}()
			}
			wg.Wait()
			close(errs)

			So(len(errs), ShouldEqual, 0)
		})

		Convey("a miss on an unpopulated id returns ok=false without blocking other readers", func() {
			_, ok := cache.Get(999)
			So(ok, ShouldBeFalse)

			b, ok := cache.Get(1)
			So(ok, ShouldBeTrue)
			So(b.ID, ShouldEqual, int32(1))
		})

		Convey("Len reports the number of cached entries", func() {
			So(cache.Len(), ShouldEqual, 1)
		})
	})
}

// A refresh must replace an entry wholesale rather than mutate fields (or
// the attribs map) on the shared pointer a reader may be holding, so a
// reader that already obtained the old *Beatmap keeps seeing a fully
// consistent value. This drives the actual buildFreshBeatmaps/publish pair
// that Load uses, not a hand-rolled stand-in swap.
func TestBeatmapCache_RefreshIsCopyOnWrite(t *testing.T) {
	Convey("Given a cache with an existing entry", t, func() {
		table := model.NewAttributeTable()
		table.Add(1, model.AttrStrain)

		cache := NewBeatmapCache(nil, table, model.ModeStandard)
		original := model.NewBeatmap(1, 1, model.StatusPending, 1, 0)
		original.SetAttribute(model.ModNone, 1, 1.5)
		cache.beatmaps[1] = original

		held, _ := cache.Get(1)
		heldValue, heldOK := held.Attribute(table, model.ModNone, model.AttrStrain)

		Convey("when Load's row-building and publish pipeline refreshes the same id", func() {
			rows := []beatmapDifficultyRow{
				{id: 1, approved: int32(model.StatusRanked), scoreVersion: 1, mods: uint32(model.ModNone), attribID: 1, value: 9.0},
			}
			cache.publish(buildFreshBeatmaps(rows))

			Convey("the reader's already-obtained value is unaffected, including its attribute map", func() {
				So(held.RankedStatus, ShouldEqual, model.StatusPending)
				So(heldOK, ShouldBeTrue)
				So(heldValue, ShouldEqual, float32(1.5))
			})

			Convey("new readers observe an entirely new, refreshed value", func() {
				latest, ok := cache.Get(1)
				So(ok, ShouldBeTrue)
				So(latest, ShouldNotEqual, held)
				So(latest.RankedStatus, ShouldEqual, model.StatusRanked)

				value, ok := latest.Attribute(table, model.ModNone, model.AttrStrain)
				So(ok, ShouldBeTrue)
				So(value, ShouldEqual, float32(9.0))
			})
		})
	})
}

// buildFreshBeatmaps must group rows belonging to the same beatmap id into
// one Beatmap carrying every scanned attribute, not one Beatmap per row.
func TestBuildFreshBeatmaps_GroupsRowsByID(t *testing.T) {
	Convey("Given rows spanning two beatmaps with multiple attributes each", t, func() {
		table := model.NewAttributeTable()
		table.Add(1, model.AttrStrain)
		table.Add(2, model.AttrAim)

		rows := []beatmapDifficultyRow{
			{id: 1, approved: int32(model.StatusRanked), scoreVersion: 1, mods: uint32(model.ModNone), attribID: 1, value: 1.1},
			{id: 1, approved: int32(model.StatusRanked), scoreVersion: 1, mods: uint32(model.ModNone), attribID: 2, value: 2.2},
			{id: 2, approved: int32(model.StatusLoved), scoreVersion: 1, mods: uint32(model.ModNone), attribID: 1, value: 3.3},
		}

		fresh := buildFreshBeatmaps(rows)

		Convey("each id maps to exactly one Beatmap carrying all of its rows", func() {
			So(len(fresh), ShouldEqual, 2)

			b1 := fresh[1]
			strain, ok := b1.Attribute(table, model.ModNone, model.AttrStrain)
			So(ok, ShouldBeTrue)
			So(strain, ShouldEqual, float32(1.1))
			aim, ok := b1.Attribute(table, model.ModNone, model.AttrAim)
			So(ok, ShouldBeTrue)
			So(aim, ShouldEqual, float32(2.2))

			b2 := fresh[2]
			So(b2.RankedStatus, ShouldEqual, model.StatusLoved)
		})
	})
}
