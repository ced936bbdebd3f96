package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/normalize"
)

const dpCSV = "\ufeffplayer,pos,team,ecr,sd,best,worst,ecr_type,scrape_date,fantasypros_id\n" +
	"Josh Allen,QB,BUF,1.2,0.4,1,2,dp,2024-09-01,17298\n" +
	"Jalen Hurts,QB,PHI,2.5,0.8,1,4,dp,2024-09-02,19790\n" +
	"Josh Allen,QB,BUF,3.0,1.0,1,5,rp,2024-09-02,17298\n"

const oppCSV = "season,week,player_id,full_name,position,posteam,total_fantasy_points,total_fantasy_points_exp\n" +
	"2024,1,00-0034857,Josh Allen,QB,BUF,28.1,21.4\n" +
	"2024,2,00-0034857,Josh Allen,QB,BUF,NA,19.0\n"

func TestCSVRankingFeed(t *testing.T) {
	Convey("Given a DynastyProcess csv file", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/empty.csv":
			case "/bad.csv":
				_, _ = w.Write([]byte("a,b\n\"unterminated\n"))
			default:
				_, _ = w.Write([]byte(dpCSV))
			}
		}))
		Reset(srv.Close)

		Convey("rows are keyed by lower-case header", func() {
			f := NewCSVRankingFeed(srv.URL+"/dp.csv", normalize.SchemaDynastyProcess, model.Dynasty, testOptions()...)
			batch, err := f.Pull(context.Background())
			So(err, ShouldBeNil)
			So(batch.Rows, ShouldHaveLength, 3)
			So(batch.Rows[0]["player"], ShouldEqual, "Josh Allen")
			So(batch.Version, ShouldEqual, "2024-09-02")
			So(batch.Source, ShouldEqual, normalize.SchemaDynastyProcess)

			Convey("and normalize keeps only dynasty rows ranked by ecr", func() {
				res, err := normalize.New().Normalize(context.Background(), []normalize.RankingBatch{batch}, nil)
				So(err, ShouldBeNil)
				So(res.Rankings, ShouldHaveLength, 2)
				So(res.Rankings[0].PlayerID, ShouldEqual, "17298")
				So(res.Rankings[0].Rank, ShouldEqual, model.Rank(1))
			})
		})

		Convey("an empty file is a decode error", func() {
			f := NewCSVRankingFeed(srv.URL+"/empty.csv", normalize.SchemaDynastyProcess, model.Dynasty, testOptions()...)
			_, err := f.Pull(context.Background())
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
		})

		Convey("a malformed file is a decode error", func() {
			f := NewCSVRankingFeed(srv.URL+"/bad.csv", normalize.SchemaDynastyProcess, model.Dynasty, testOptions()...)
			_, err := f.Pull(context.Background())
			So(errors.Is(err, ErrFetch), ShouldBeTrue)
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
		})
	})
}

func TestCSVPointsFeed(t *testing.T) {
	Convey("Given an opportunity csv file", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(oppCSV))
		}))
		Reset(srv.Close)

		f := NewCSVPointsFeed(srv.URL, normalize.SchemaOpportunity, testOptions()...)
		batch, err := f.Pull(context.Background())
		So(err, ShouldBeNil)
		So(batch.Rows, ShouldHaveLength, 2)
		So(batch.Version, ShouldNotBeEmpty)

		Convey("normalized points skip rows without actual points", func() {
			pts, err := normalize.New().Points(context.Background(), nil, []normalize.PointsBatch{batch})
			So(err, ShouldBeNil)
			So(pts, ShouldHaveLength, 1)
			So(pts[0].Period, ShouldResemble, model.Period{Season: 2024, Week: 1})
			So(pts[0].Actual, ShouldAlmostEqual, 28.1)
			So(*pts[0].Expected, ShouldAlmostEqual, 21.4)
		})
	})
}

func TestCSVProjectionFeed(t *testing.T) {
	Convey("Given a projections csv file", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("player_name,pos,team,rush_yds,rush_tds,receptions\n" +
				"Bijan Robinson,RB,ATL,1250.5,11,55\n"))
		}))
		Reset(srv.Close)

		f := NewCSVProjectionFeed(srv.URL+"/proj.csv", normalize.SchemaProjection, testOptions()...)
		batch, err := f.Pull(context.Background())
		So(err, ShouldBeNil)
		So(batch.Schema, ShouldEqual, normalize.SchemaProjection)
		So(batch.Version, ShouldNotBeEmpty)

		Convey("the rows normalize into stat lines", func() {
			lines, err := normalize.New().Projections(context.Background(), nil, []normalize.ProjectionBatch{batch})
			So(err, ShouldBeNil)
			So(lines, ShouldHaveLength, 1)
			So(lines[0].Stats["rush_yd"], ShouldEqual, 1250.5)
			So(lines[0].Stats["rec"], ShouldEqual, 55.0)
		})
	})
}
