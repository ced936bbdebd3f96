package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rosterlens/internal/adapters/feed"
	"github.com/okian/rosterlens/internal/adapters/http/api"
	"github.com/okian/rosterlens/internal/adapters/mq/queue"
	service "github.com/okian/rosterlens/internal/app"
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/ownership"
)

type mockSnapshots struct {
	snap  *service.Snapshot
	err   error
	asked []string
}

func (m *mockSnapshots) GetSnapshot(_ context.Context, leagueID string) (*service.Snapshot, error) {
	m.asked = append(m.asked, leagueID)
	return m.snap, m.err
}

type mockQueue struct {
	err  error
	jobs []queue.Job
}

func (m *mockQueue) Enqueue(_ context.Context, j queue.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, j)
	return nil
}

func fixtureSnapshot() *service.Snapshot {
	return &service.Snapshot{
		ID:          "snap-1",
		DataVersion: "v1",
		LeagueID:    "L1",
		BuiltAt:     time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Tiers: []model.Tier{
			{Position: model.QB, Scope: model.Dynasty, Index: 1, PlayerIDs: []string{"qb1", "qb2"}},
			{Position: model.QB, Scope: model.Dynasty, Index: 2, PlayerIDs: []string{"qb3"}},
			{Position: model.RB, Scope: model.Dynasty, Index: 1, PlayerIDs: []string{"rb1"}},
			{Position: model.QB, Scope: model.Weekly, Week: 3, Index: 1, PlayerIDs: []string{"qb2"}},
		},
		TradeValues: []model.TradeValue{
			{PlayerID: "qb1", Position: model.QB, Scope: model.Dynasty, Value: 9999, PositionRank: 1},
			{PlayerID: "rb1", Position: model.RB, Scope: model.Dynasty, Value: 8000, PositionRank: 1},
		},
		Board: &ownership.View{
			LeagueID: "L1",
			Entries: []ownership.Entry{
				{RankingRecord: model.RankingRecord{PlayerID: "qb1"}, Owner: "alice"},
				{RankingRecord: model.RankingRecord{PlayerID: "qb2"}, Owner: "bob"},
				{RankingRecord: model.RankingRecord{PlayerID: "qb3"}, FreeAgent: true},
			},
		},
		Sections: map[service.Section]service.Availability{
			service.SectionOwnership:   {Available: true},
			service.SectionTiers:       {Available: true},
			service.SectionTradeValues: {Available: true},
			service.SectionEfficiency:  {Reason: "no points source configured"},
			service.SectionProjections: {Available: true},
		},
		Projections: []model.Projection{
			{PlayerID: "qb1", Position: model.QB, Points: 310.4},
			{PlayerID: "rb1", Position: model.RB, Points: 250},
		},
	}
}

func newTestServer(snaps api.SnapshotGetter, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(snaps, opts...).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}

func TestSnapshotEndpoint(t *testing.T) {
	Convey("GET /snapshot", t, func() {
		snaps := &mockSnapshots{snap: fixtureSnapshot()}
		mux := newTestServer(snaps)

		Convey("returns the snapshot for the league", func() {
			rec := do(mux, http.MethodGet, "/snapshot?league_id=L1")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
			body := decode(rec)
			So(body["id"], ShouldEqual, "snap-1")
			So(body["data_version"], ShouldEqual, "v1")
			So(snaps.asked, ShouldResemble, []string{"L1"})
		})

		Convey("uses default mode without a league", func() {
			rec := do(mux, http.MethodGet, "/snapshot")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(snaps.asked, ShouldResemble, []string{""})
		})

		Convey("rejects other methods", func() {
			rec := do(mux, http.MethodPost, "/snapshot")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Engine errors map to status codes", t, func() {
		cases := []struct {
			err  error
			code int
		}{
			{&feed.FetchError{Source: "fantasypros", Err: errors.New("boom")}, http.StatusBadGateway},
			{service.ErrNoRankingFeed, http.StatusServiceUnavailable},
			{context.DeadlineExceeded, http.StatusGatewayTimeout},
			{errors.New("other"), http.StatusInternalServerError},
		}
		for _, c := range cases {
			mux := newTestServer(&mockSnapshots{err: c.err})
			rec := do(mux, http.MethodGet, "/snapshot")
			So(rec.Code, ShouldEqual, c.code)
		}
	})
}

func TestTiersEndpoint(t *testing.T) {
	Convey("GET /tiers", t, func() {
		mux := newTestServer(&mockSnapshots{snap: fixtureSnapshot()})

		Convey("filters by scope and position", func() {
			rec := do(mux, http.MethodGet, "/tiers?position=qb")
			So(rec.Code, ShouldEqual, http.StatusOK)
			tiers := decode(rec)["tiers"].([]any)
			So(tiers, ShouldHaveLength, 2)
		})

		Convey("matches the week in weekly scope", func() {
			rec := do(mux, http.MethodGet, "/tiers?position=QB&scope=weekly&week=3")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["tiers"].([]any), ShouldHaveLength, 1)

			rec = do(mux, http.MethodGet, "/tiers?position=QB&scope=weekly&week=4")
			So(decode(rec)["tiers"], ShouldBeNil)
		})

		Convey("validates parameters", func() {
			So(do(mux, http.MethodGet, "/tiers").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/tiers?position=K").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/tiers?position=QB&scope=forever").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/tiers?position=QB&week=-1").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestTradeValuesEndpoint(t *testing.T) {
	Convey("GET /trade-values lists all positions unless one is named", t, func() {
		mux := newTestServer(&mockSnapshots{snap: fixtureSnapshot()})
		rec := do(mux, http.MethodGet, "/trade-values")
		So(rec.Code, ShouldEqual, http.StatusOK)
		So(decode(rec)["trade_values"].([]any), ShouldHaveLength, 2)

		rec = do(mux, http.MethodGet, "/trade-values?position=RB")
		values := decode(rec)["trade_values"].([]any)
		So(values, ShouldHaveLength, 1)
		So(values[0].(map[string]any)["player_id"], ShouldEqual, "rb1")
	})
}

func TestSectionEndpoints(t *testing.T) {
	Convey("Unavailable sections answer 409 with the reason", t, func() {
		mux := newTestServer(&mockSnapshots{snap: fixtureSnapshot()})
		rec := do(mux, http.MethodGet, "/efficiency")
		So(rec.Code, ShouldEqual, http.StatusConflict)
		So(decode(rec)["message"], ShouldContainSubstring, "no points source configured")
	})

	Convey("GET /available hides other teams' players", t, func() {
		mux := newTestServer(&mockSnapshots{snap: fixtureSnapshot()})
		rec := do(mux, http.MethodGet, "/available?league_id=L1&owner=alice")
		So(rec.Code, ShouldEqual, http.StatusOK)
		players := decode(rec)["players"].([]any)
		So(players, ShouldHaveLength, 2)

		So(do(mux, http.MethodGet, "/available").Code, ShouldEqual, http.StatusBadRequest)
	})

	Convey("GET /projections filters by position", t, func() {
		mux := newTestServer(&mockSnapshots{snap: fixtureSnapshot()})
		rec := do(mux, http.MethodGet, "/projections?league_id=L1&position=rb")
		So(rec.Code, ShouldEqual, http.StatusOK)
		body := decode(rec)
		So(body["league_id"], ShouldEqual, "L1")
		proj := body["projections"].([]any)
		So(proj, ShouldHaveLength, 1)
		So(proj[0].(map[string]any)["projected_points"], ShouldEqual, 250.0)
	})

	Convey("GET /projections without league scoring is unavailable", t, func() {
		snap := fixtureSnapshot()
		snap.Sections[service.SectionProjections] = service.Availability{Reason: "no league selected"}
		mux := newTestServer(&mockSnapshots{snap: snap})
		rec := do(mux, http.MethodGet, "/projections")
		So(rec.Code, ShouldEqual, http.StatusConflict)
		So(decode(rec)["message"], ShouldContainSubstring, "no league selected")
	})

	Convey("GET /available without a board is unavailable", t, func() {
		snap := fixtureSnapshot()
		snap.Board = nil
		snap.Sections[service.SectionOwnership] = service.Availability{Reason: "roster unavailable"}
		mux := newTestServer(&mockSnapshots{snap: snap})
		So(do(mux, http.MethodGet, "/available?league_id=L1").Code, ShouldEqual, http.StatusConflict)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	Convey("POST /refresh", t, func() {
		Convey("is not routed without a queue", func() {
			mux := newTestServer(&mockSnapshots{})
			So(do(mux, http.MethodPost, "/refresh").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("queues the league", func() {
			q := &mockQueue{}
			mux := newTestServer(&mockSnapshots{}, api.WithRefreshQueue(q))
			rec := do(mux, http.MethodPost, "/refresh?league_id=L9")
			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(q.jobs, ShouldHaveLength, 1)
			So(q.jobs[0].LeagueID, ShouldEqual, "L9")
			So(do(mux, http.MethodGet, "/refresh").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("reports backpressure", func() {
			mux := newTestServer(&mockSnapshots{}, api.WithRefreshQueue(&mockQueue{err: queue.ErrFull}))
			So(do(mux, http.MethodPost, "/refresh").Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("reports shutdown", func() {
			mux := newTestServer(&mockSnapshots{}, api.WithRefreshQueue(&mockQueue{err: queue.ErrClosed}))
			So(do(mux, http.MethodPost, "/refresh").Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestHealthAndMCPMount(t *testing.T) {
	Convey("/healthz serves Prometheus text", t, func() {
		mux := newTestServer(&mockSnapshots{snap: fixtureSnapshot()})
		_ = do(mux, http.MethodGet, "/snapshot")
		rec := do(mux, http.MethodGet, "/healthz")
		So(rec.Code, ShouldEqual, http.StatusOK)
		So(rec.Body.String(), ShouldContainSubstring, "http_requests_total")
	})

	Convey("/mcp is delegated to the mounted handler", t, func() {
		mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
		mux := newTestServer(&mockSnapshots{}, api.WithMCP(mcp))
		rec := do(mux, http.MethodPost, "/mcp")
		So(rec.Code, ShouldEqual, http.StatusTeapot)
		So(strings.TrimSpace(rec.Body.String()), ShouldBeEmpty)
	})
}
