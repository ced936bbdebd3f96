package feed

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/internal/domain/projection"
	"github.com/okian/rosterlens/pkg/logger"
	"github.com/okian/rosterlens/pkg/metrics"
)

var ecrDataRe = regexp.MustCompile(`var ecrData = (\{.*?\});`)

type ecrPayload struct {
	Players     []normalize.Row `json:"players"`
	LastUpdated string          `json:"last_updated"`
	Week        any             `json:"week"`
}

// ECRFeed reads the expert consensus ranking object embedded in a FantasyPros
// rankings page.
type ECRFeed struct {
	*client
	url   string
	scope model.Scope
	week  int

	// Set for a page chosen by league scoring.
	pos      model.Position
	scoring  ScoringFeed
	leagueID string
}

// NewECRFeed creates a feed for one rankings page. week is only used for
// weekly scope; zero takes the week the page reports.
func NewECRFeed(url string, scope model.Scope, week int, opts ...Option) *ECRFeed {
	return &ECRFeed{client: newClient(opts), url: url, scope: scope, week: week}
}

// NewLeagueECRFeed creates a feed for the position's rankings page under base
// (https://www.fantasypros.com/nfl/rankings) that matches the reception
// scoring of leagueID. The page is chosen on every pull; when the settings
// cannot be read the standard page is used.
func NewLeagueECRFeed(base string, pos model.Position, scope model.Scope, week int, scoring ScoringFeed, leagueID string, opts ...Option) *ECRFeed {
	f := NewECRFeed(strings.TrimRight(base, "/"), scope, week, opts...)
	f.pos, f.scoring, f.leagueID = pos, scoring, leagueID
	return f
}

// ECRPageURL returns the rankings page for pos under base. Quarterback pages
// do not vary by reception scoring.
func ECRPageURL(base string, pos model.Position, w projection.Weights) string {
	base = strings.TrimRight(base, "/")
	p := strings.ToLower(string(pos))
	if pos == model.QB {
		return base + "/qb.php"
	}
	switch w.Format() {
	case projection.PPR:
		return base + "/ppr-" + p + ".php"
	case projection.HalfPPR:
		return base + "/half-point-ppr-" + p + ".php"
	default:
		return base + "/" + p + ".php"
	}
}

// Source names the feed in errors and metrics.
func (f *ECRFeed) Source() string { return "fantasypros" }

func (f *ECRFeed) page(ctx context.Context) string {
	if f.scoring == nil {
		return f.url
	}
	w, err := f.scoring.ScoringSettings(ctx, f.leagueID)
	if err != nil {
		f.log.Warn(ctx, "league scoring unavailable, using standard rankings page",
			logger.String("league_id", f.leagueID), logger.Error(err))
	}
	return ECRPageURL(f.url, f.pos, w)
}

// Pull fetches and decodes the page.
func (f *ECRFeed) Pull(ctx context.Context) (normalize.RankingBatch, error) {
	start := time.Now()
	body, err := f.get(ctx, f.page(ctx))
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.RankingBatch{}, fetchErr(f.Source(), err)
	}
	batch, err := decodeECR(body, f.scope, f.week)
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.RankingBatch{}, fetchErr(f.Source(), err)
	}
	batch.Source = f.Source()
	metrics.RecordFeedFetch(f.Source(), float64(time.Since(start).Milliseconds()), len(batch.Rows))
	f.log.Debug(ctx, "ecr page decoded",
		logger.String("scope", string(f.scope)), logger.Int("week", batch.Week),
		logger.Int("players", len(batch.Rows)), logger.String("version", batch.Version))
	return batch, nil
}

func decodeECR(page []byte, scope model.Scope, week int) (normalize.RankingBatch, error) {
	m := ecrDataRe.FindSubmatch(page)
	if m == nil {
		return normalize.RankingBatch{}, fmt.Errorf("%w: ecrData object not found", ErrDecode)
	}
	var p ecrPayload
	if err := jsoniter.Unmarshal(m[1], &p); err != nil {
		return normalize.RankingBatch{}, fmt.Errorf("%w: ecrData: %v", ErrDecode, err)
	}

	batch := normalize.RankingBatch{
		Schema:  normalize.SchemaFantasyProsECR,
		Scope:   scope,
		Version: p.LastUpdated,
		Rows:    p.Players,
	}
	if batch.Version == "" {
		batch.Version = contentVersion(m[1])
	}
	if scope == model.Weekly {
		batch.Week = week
		if batch.Week == 0 {
			batch.Week = pageWeek(p.Week)
		}
	}
	return batch, nil
}

func pageWeek(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err == nil {
			return n
		}
	}
	return 0
}
