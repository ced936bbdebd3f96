package feed

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/internal/domain/projection"
)

func TestStaticFeeds(t *testing.T) {
	Convey("Static feeds serve fixed batches until told to fail", t, func() {
		ctx := context.Background()

		r := NewStaticRankingFeed(normalize.RankingBatch{Source: "fixture", Version: "v1"})
		b, err := r.Pull(ctx)
		So(err, ShouldBeNil)
		So(b.Version, ShouldEqual, "v1")

		r.Fail(errors.New("down"))
		_, err = r.Pull(ctx)
		So(errors.Is(err, ErrFetch), ShouldBeTrue)

		r.Set(normalize.RankingBatch{Source: "fixture", Version: "v2"})
		b, err = r.Pull(ctx)
		So(err, ShouldBeNil)
		So(b.Version, ShouldEqual, "v2")

		rosters := NewStaticRosterFeed(normalize.RosterBatch{LeagueID: "L1", Version: "r1"})
		rb, err := rosters.Pull(ctx, "L1")
		So(err, ShouldBeNil)
		So(rb.Version, ShouldEqual, "r1")
		_, err = rosters.Pull(ctx, "L2")
		So(errors.Is(err, ErrNoLeague), ShouldBeTrue)

		pts := NewStaticPointsFeed(normalize.PointsBatch{Version: "p1"})
		pts.Fail(errors.New("down"))
		_, err = pts.Pull(ctx)
		So(errors.Is(err, ErrFetch), ShouldBeTrue)

		proj := NewStaticProjectionFeed(normalize.ProjectionBatch{Version: "j1"})
		jb, err := proj.Pull(ctx)
		So(err, ShouldBeNil)
		So(jb.Version, ShouldEqual, "j1")

		scoring := NewStaticScoringFeed(map[string]projection.Weights{"L1": {"rec": 1}})
		w, err := scoring.ScoringSettings(ctx, "L1")
		So(err, ShouldBeNil)
		So(w.Format(), ShouldEqual, projection.PPR)
		_, err = scoring.ScoringSettings(ctx, "L2")
		So(errors.Is(err, ErrNoLeague), ShouldBeTrue)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = r.Pull(cancelled)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}
