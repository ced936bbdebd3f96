package trade_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/trade"
	. "github.com/smartystreets/goconvey/convey"
)

func group(pos model.Position, n int) ([]model.PlayerRef, []model.RankingRecord) {
	var players []model.PlayerRef
	var recs []model.RankingRecord
	for i := 1; i <= n; i++ {
		id := string(pos) + strconv.Itoa(i)
		players = append(players, model.PlayerRef{ID: id, Position: pos})
		recs = append(recs, model.RankingRecord{PlayerID: id, Position: pos, Scope: model.Dynasty, Rank: model.Rank(i), SourceOrder: i})
	}
	return players, recs
}

func TestPoolOrdering(t *testing.T) {
	Convey("Given a ranked position group", t, func() {
		players, recs := group(model.WR, 30)
		pool := trade.NewPool(players, recs, trade.WithScarcityExponent(0))

		Convey("Then values strictly decrease with rank and the top is the scale", func() {
			all := pool.All()
			So(len(all), ShouldEqual, 30)
			So(all[0].Value, ShouldAlmostEqual, 9999, 1e-6)
			for i := 1; i < len(all); i++ {
				So(all[i].Value, ShouldBeLessThan, all[i-1].Value)
				So(all[i].Value, ShouldBeGreaterThan, 0)
				So(all[i].PositionRank, ShouldEqual, i+1)
			}
		})

		Convey("Then the curve follows the inverted rank power", func() {
			tv, ok := pool.Value(players[1], recs[1])
			So(ok, ShouldBeTrue)
			So(tv.Value, ShouldAlmostEqual, 9999*math.Pow(29.0/30.0, 2.2), 1e-6)
		})
	})

	Convey("Given an old star ahead of a young player", t, func() {
		players, recs := group(model.RB, 2)
		old := 30.0
		players[0].Age = &old
		pool := trade.NewPool(players, recs, trade.WithAgeDecay(1), trade.WithScarcityExponent(0))

		Convey("Then age decay never inverts the rank order", func() {
			top, _ := pool.Value(players[0], recs[0])
			next, _ := pool.Value(players[1], recs[1])
			So(top.Value, ShouldBeGreaterThan, next.Value)
			So(top.Value, ShouldAlmostEqual, 9999, 1e-6)
		})
	})

	Convey("Given an old and a young player", t, func() {
		players, recs := group(model.RB, 3)
		young, old := 23.0, 29.0
		players[0].Age, players[1].Age = &young, &old
		plain := trade.NewPool(players, recs, trade.WithAgeDecay(0), trade.WithScarcityExponent(0))
		aged := trade.NewPool(players, recs, trade.WithScarcityExponent(0))

		Convey("Then age past the threshold lowers value", func() {
			a, _ := aged.Value(players[1], recs[1])
			p, _ := plain.Value(players[1], recs[1])
			So(a.Value, ShouldBeLessThan, p.Value)
			y, _ := aged.Value(players[0], recs[0])
			So(y.Value, ShouldAlmostEqual, 9999, 1e-6)
		})
	})
}

func TestPoolScarcity(t *testing.T) {
	Convey("Given a shallow and a deep position", t, func() {
		qbPlayers, qbRecs := group(model.QB, 8)
		rbPlayers, rbRecs := group(model.RB, 32)
		pool := trade.NewPool(append(qbPlayers, rbPlayers...), append(qbRecs, rbRecs...))

		Convey("Then the shallow position's top player is worth more", func() {
			qb, _ := pool.Value(qbPlayers[0], qbRecs[0])
			rb, _ := pool.Value(rbPlayers[0], rbRecs[0])
			So(qb.Value, ShouldAlmostEqual, 9999, 1e-6)
			So(rb.Value, ShouldAlmostEqual, 9999/2.0, 1e-6)
		})

		Convey("Then a pinned multiplier overrides depth", func() {
			pinned := trade.NewPool(append(qbPlayers, rbPlayers...), append(qbRecs, rbRecs...),
				trade.WithScarcity(map[string]float64{"qb": 1}))
			qb, _ := pinned.Value(qbPlayers[0], qbRecs[0])
			rb, _ := pinned.Value(rbPlayers[0], rbRecs[0])
			So(qb.Value, ShouldAlmostEqual, rb.Value, 1e-6)
		})
	})
}

func TestPoolLookup(t *testing.T) {
	Convey("Given a pool", t, func() {
		players, recs := group(model.TE, 3)
		unranked := model.RankingRecord{PlayerID: "x", Position: model.TE, Scope: model.Dynasty}
		pool := trade.NewPool(players, append(recs, unranked))

		Convey("Then unknown ranks get no value", func() {
			_, ok := pool.Value(model.PlayerRef{ID: "x"}, unranked)
			So(ok, ShouldBeFalse)
			So(len(pool.All()), ShouldEqual, 3)
		})

		Convey("Then a mismatched player and record is rejected", func() {
			_, ok := pool.Value(players[0], recs[1])
			So(ok, ShouldBeFalse)
		})
	})
}
