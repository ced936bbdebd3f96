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
	"github.com/okian/rosterlens/internal/domain/projection"
)

const ecrPage = `<html><script>
var sosData = [];
var ecrData = {"sport":"NFL","type":"RK","week":"3","last_updated":"2024-09-18 06:00","players":[{"player_id":17240,"player_name":"Bijan Robinson","player_team_id":"ATL","player_position_id":"RB","pos_rank":"RB1","rank_ave":"1.4","rank_min":"1","rank_max":"3","rank_std":"0.5"},{"player_id":16393,"player_name":"Breece Hall","player_team_id":"NYJ","player_position_id":"RB","pos_rank":"RB2","rank_ave":"2.1","rank_min":"1","rank_max":"5","rank_std":"0.9"}]};
var adpData = [];
</script></html>`

func TestECRFeed(t *testing.T) {
	Convey("Given a FantasyPros rankings page", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/broken" {
				_, _ = w.Write([]byte("<html>no data</html>"))
				return
			}
			_, _ = w.Write([]byte(ecrPage))
		}))
		Reset(srv.Close)

		Convey("the embedded object becomes a ranking batch", func() {
			f := NewECRFeed(srv.URL+"/rb.php", model.Weekly, 0, testOptions()...)
			batch, err := f.Pull(context.Background())
			So(err, ShouldBeNil)
			So(batch.Source, ShouldEqual, "fantasypros")
			So(batch.Schema, ShouldEqual, normalize.SchemaFantasyProsECR)
			So(batch.Scope, ShouldEqual, model.Weekly)
			So(batch.Week, ShouldEqual, 3)
			So(batch.Version, ShouldEqual, "2024-09-18 06:00")
			So(batch.Rows, ShouldHaveLength, 2)
			So(batch.Rows[0]["player_name"], ShouldEqual, "Bijan Robinson")
		})

		Convey("an explicit week wins over the page week", func() {
			f := NewECRFeed(srv.URL+"/rb.php", model.Weekly, 7, testOptions()...)
			batch, err := f.Pull(context.Background())
			So(err, ShouldBeNil)
			So(batch.Week, ShouldEqual, 7)
		})

		Convey("dynasty scope ignores weeks", func() {
			f := NewECRFeed(srv.URL+"/rb.php", model.Dynasty, 7, testOptions()...)
			batch, err := f.Pull(context.Background())
			So(err, ShouldBeNil)
			So(batch.Week, ShouldEqual, 0)
		})

		Convey("the batch normalizes into ranked records", func() {
			f := NewECRFeed(srv.URL+"/rb.php", model.Dynasty, 0, testOptions()...)
			batch, err := f.Pull(context.Background())
			So(err, ShouldBeNil)
			res, err := normalize.New().Normalize(context.Background(), []normalize.RankingBatch{batch}, nil)
			So(err, ShouldBeNil)
			So(res.Rankings, ShouldHaveLength, 2)
			So(res.Rankings[0].PlayerID, ShouldEqual, "17240")
			So(res.Rankings[0].Rank, ShouldEqual, model.Rank(1))
			So(res.Rankings[1].Rank, ShouldEqual, model.Rank(2))
		})

		Convey("a page without ecrData is a fetch error", func() {
			f := NewECRFeed(srv.URL+"/broken", model.Dynasty, 0, testOptions()...)
			_, err := f.Pull(context.Background())
			So(errors.Is(err, ErrFetch), ShouldBeTrue)
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
		})
	})
}

func TestDecodeECRVersionFallback(t *testing.T) {
	page := []byte(`var ecrData = {"players":[]};`)
	a, err := decodeECR(page, model.Draft, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := decodeECR(page, model.Draft, 0)
	if a.Version == "" || a.Version != b.Version {
		t.Fatalf("expected stable content version, got %q and %q", a.Version, b.Version)
	}
}

type stubScoring struct {
	w   projection.Weights
	err error
}

func (s stubScoring) ScoringSettings(context.Context, string) (projection.Weights, error) {
	return s.w, s.err
}

func TestECRPageURL(t *testing.T) {
	Convey("The rankings page follows reception scoring", t, func() {
		base := "https://www.fantasypros.com/nfl/rankings/"
		So(ECRPageURL(base, model.RB, projection.Weights{"rec": 1}), ShouldEqual, "https://www.fantasypros.com/nfl/rankings/ppr-rb.php")
		So(ECRPageURL(base, model.WR, projection.Weights{"rec": 0.5}), ShouldEqual, "https://www.fantasypros.com/nfl/rankings/half-point-ppr-wr.php")
		So(ECRPageURL(base, model.TE, projection.Weights{"rec": 0}), ShouldEqual, "https://www.fantasypros.com/nfl/rankings/te.php")
		So(ECRPageURL(base, model.TE, nil), ShouldEqual, "https://www.fantasypros.com/nfl/rankings/te.php")
		So(ECRPageURL(base, model.QB, projection.Weights{"rec": 1}), ShouldEqual, "https://www.fantasypros.com/nfl/rankings/qb.php")
	})
}

func TestLeagueECRFeed(t *testing.T) {
	Convey("Given rankings pages per scoring format", t, func() {
		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			_, _ = w.Write([]byte(ecrPage))
		}))
		Reset(srv.Close)

		Convey("a half PPR league pulls the half PPR page", func() {
			f := NewLeagueECRFeed(srv.URL+"/nfl/rankings", model.RB, model.Weekly, 0, stubScoring{w: projection.Weights{"rec": 0.5}}, "L1", testOptions()...)
			batch, err := f.Pull(context.Background())
			So(err, ShouldBeNil)
			So(batch.Rows, ShouldHaveLength, 2)
			So(paths, ShouldResemble, []string{"/nfl/rankings/half-point-ppr-rb.php"})
		})

		Convey("unreadable league settings fall back to the standard page", func() {
			f := NewLeagueECRFeed(srv.URL+"/nfl/rankings/", model.WR, model.Weekly, 0, stubScoring{err: errors.New("down")}, "L1", testOptions()...)
			_, err := f.Pull(context.Background())
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{"/nfl/rankings/wr.php"})
		})
	})
}
