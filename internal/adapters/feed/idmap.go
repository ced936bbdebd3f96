package feed

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/rosterlens/pkg/logger"
	"github.com/okian/rosterlens/pkg/metrics"
)

const idMapSource = "id_map"

// Crosswalk translates Sleeper player ids to the ids ranking sources use.
type Crosswalk interface {
	FantasyProsIDs(ctx context.Context) (map[string]string, error)
}

// IDMap reads a published player id table, such as the DynastyProcess
// db_playerids.csv, and keeps the sleeper_id to fantasypros_id pairs.
type IDMap struct {
	*client
	url string
	ttl time.Duration

	mu  sync.Mutex
	ids map[string]string
	at  time.Time
}

// NewIDMap creates a crosswalk over the CSV at url.
func NewIDMap(url string, opts ...Option) *IDMap {
	return &IDMap{client: newClient(opts), url: url, ttl: defaultDirectoryTTL}
}

// FantasyProsIDs returns the id table, reloading it after a day. A failed
// reload keeps serving the previous table.
func (m *IDMap) FantasyProsIDs(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids != nil && time.Since(m.at) < m.ttl {
		return m.ids, nil
	}

	start := time.Now()
	ids, err := m.load(ctx)
	if err == nil {
		m.ids, m.at = ids, time.Now()
		metrics.RecordFeedFetch(idMapSource, float64(time.Since(start).Milliseconds()), len(ids))
		m.log.Info(ctx, "player id map loaded", logger.Int("players", len(ids)))
		return ids, nil
	}
	metrics.RecordFeedError(idMapSource)
	if m.ids != nil {
		m.log.Warn(ctx, "player id map reload failed, serving cached copy", logger.Error(err))
		return m.ids, nil
	}
	return nil, fetchErr(idMapSource, err)
}

func (m *IDMap) load(ctx context.Context) (map[string]string, error) {
	body, err := m.get(ctx, m.url)
	if err != nil {
		return nil, err
	}
	rows, err := parseCSV(body)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(rows))
	for _, r := range rows {
		sid, fid := cleanID(r["sleeper_id"]), cleanID(r["fantasypros_id"])
		if sid != "" && fid != "" {
			ids[sid] = fid
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no sleeper_id and fantasypros_id pairs", ErrDecode)
	}
	return ids, nil
}

// cleanID turns "4046.0" into "4046" and missing markers into "".
func cleanID(v any) string {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "NA", "NAN", "NULL":
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
