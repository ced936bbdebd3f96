package model_test

import (
	"testing"

	model "github.com/okian/rosterlens/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParsePosition(t *testing.T) {
	convey.Convey("Given source position labels", t, func() {
		convey.So(model.ParsePosition("rb"), convey.ShouldEqual, model.RB)
		convey.So(model.ParsePosition(" WR12 "), convey.ShouldEqual, model.WR)
		convey.So(model.ParsePosition("K"), convey.ShouldEqual, model.Other)
		convey.So(model.ParsePosition(""), convey.ShouldEqual, model.Other)
	})
}

func TestParseScope(t *testing.T) {
	convey.Convey("Given scope labels", t, func() {
		s, err := model.ParseScope("dp")
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, model.Dynasty)

		s, err = model.ParseScope("Weekly")
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, model.Weekly)

		_, err = model.ParseScope("monthly")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestRankingRecord(t *testing.T) {
	convey.Convey("Given a ranking record", t, func() {
		convey.Convey("When only a rank is known", func() {
			r := model.RankingRecord{PlayerID: "1", Rank: 4}

			convey.Convey("Then value is the rank and dispersion is zero", func() {
				convey.So(r.Value(), convey.ShouldEqual, 4)
				convey.So(r.Dispersion(), convey.ShouldEqual, 0)
				convey.So(r.Rank.Known(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When best and worst are known", func() {
			r := model.RankingRecord{Rank: 4, Avg: model.Float(4.5), Best: model.Float(2), Worst: model.Float(10)}

			convey.Convey("Then dispersion is a quarter of the range", func() {
				convey.So(r.Value(), convey.ShouldEqual, 4.5)
				convey.So(r.Dispersion(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a standard deviation is known", func() {
			r := model.RankingRecord{Rank: 4, StdDev: model.Float(1.25), Best: model.Float(2), Worst: model.Float(10)}

			convey.Convey("Then it takes precedence", func() {
				convey.So(r.Dispersion(), convey.ShouldEqual, 1.25)
			})
		})

		convey.Convey("When the rank is missing", func() {
			convey.So(model.UnknownRank.Known(), convey.ShouldBeFalse)
		})
	})
}

func TestPeriodAndGroup(t *testing.T) {
	convey.Convey("Given periods and group keys", t, func() {
		convey.So(model.SeasonPeriod(2024).IsSeason(), convey.ShouldBeTrue)
		convey.So(model.Period{Season: 2024, Week: 3}.String(), convey.ShouldEqual, "2024-w3")
		convey.So(model.GroupKey{Scope: model.Weekly, Week: 2, Position: model.QB}.String(), convey.ShouldEqual, "weekly/w2/QB")
		convey.So(model.GroupKey{Scope: model.Dynasty, Position: model.TE}.String(), convey.ShouldEqual, "dynasty/TE")
	})
}
