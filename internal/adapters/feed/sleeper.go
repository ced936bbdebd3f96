package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/internal/domain/projection"
	"github.com/okian/rosterlens/pkg/logger"
	"github.com/okian/rosterlens/pkg/metrics"
)

const (
	sleeperSource       = "sleeper"
	defaultDirectoryTTL = 24 * time.Hour
)

type sleeperRoster struct {
	OwnerID string   `json:"owner_id"`
	Players []string `json:"players"`
	Reserve []string `json:"reserve"`
}

type sleeperUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type sleeperLeague struct {
	ScoringSettings map[string]float64 `json:"scoring_settings"`
}

type sleeperPlayer struct {
	FullName  string   `json:"full_name"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Position  string   `json:"position"`
	Team      *string  `json:"team"`
	Age       *float64 `json:"age"`
}

func (p sleeperPlayer) name() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// SleeperFeed pulls league rosters and owner names from the Sleeper API and
// joins them with the Sleeper player directory.
type SleeperFeed struct {
	*client
	baseURL string

	dirTTL time.Duration
	dirMu  sync.Mutex
	dir    map[string]sleeperPlayer
	dirAt  time.Time

	ids Crosswalk
}

// NewSleeperFeed creates a Sleeper client rooted at baseURL
// (https://api.sleeper.app/v1).
func NewSleeperFeed(baseURL string, opts ...Option) *SleeperFeed {
	return &SleeperFeed{
		client:  newClient(opts),
		baseURL: strings.TrimRight(baseURL, "/"),
		dirTTL:  defaultDirectoryTTL,
	}
}

// UseCrosswalk makes roster rows carry the ranking-side player_id of every
// player the crosswalk knows. Others are matched by name, position and team.
func (f *SleeperFeed) UseCrosswalk(c Crosswalk) *SleeperFeed {
	f.ids = c
	return f
}

// Source names the feed in errors and metrics.
func (f *SleeperFeed) Source() string { return sleeperSource }

// Pull returns one row per rostered player (active and reserve) carrying the
// owner's display name. Players missing from the directory are skipped.
func (f *SleeperFeed) Pull(ctx context.Context, leagueID string) (normalize.RosterBatch, error) {
	start := time.Now()
	batch, err := f.pull(ctx, leagueID)
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return normalize.RosterBatch{}, fetchErr(f.Source(), err)
	}
	metrics.RecordFeedFetch(f.Source(), float64(time.Since(start).Milliseconds()), len(batch.Rows))
	return batch, nil
}

func (f *SleeperFeed) pull(ctx context.Context, leagueID string) (normalize.RosterBatch, error) {
	if leagueID == "" {
		return normalize.RosterBatch{}, ErrNoLeague
	}
	league := url.PathEscape(leagueID)

	rawRosters, err := f.get(ctx, f.baseURL+"/league/"+league+"/rosters")
	if err != nil {
		return normalize.RosterBatch{}, fmt.Errorf("rosters %s: %w", leagueID, err)
	}
	var rosters []sleeperRoster
	if err := jsoniter.Unmarshal(rawRosters, &rosters); err != nil {
		return normalize.RosterBatch{}, fmt.Errorf("%w: rosters: %v", ErrDecode, err)
	}
	if len(rosters) == 0 {
		return normalize.RosterBatch{}, fmt.Errorf("%w: %s", ErrNoLeague, leagueID)
	}

	rawUsers, err := f.get(ctx, f.baseURL+"/league/"+league+"/users")
	if err != nil {
		return normalize.RosterBatch{}, fmt.Errorf("users %s: %w", leagueID, err)
	}
	var users []sleeperUser
	if err := jsoniter.Unmarshal(rawUsers, &users); err != nil {
		return normalize.RosterBatch{}, fmt.Errorf("%w: users: %v", ErrDecode, err)
	}
	owners := make(map[string]string, len(users))
	for _, u := range users {
		owners[u.UserID] = u.DisplayName
	}

	dir, err := f.directory(ctx)
	if err != nil {
		return normalize.RosterBatch{}, err
	}

	xwalk := f.crosswalk(ctx)

	var rows []normalize.Row
	missing := 0
	for _, r := range rosters {
		owner, ok := owners[r.OwnerID]
		if !ok {
			// Orphaned rosters have no owner to attribute players to.
			continue
		}
		for _, id := range append(append([]string(nil), r.Players...), r.Reserve...) {
			p, ok := dir[id]
			if !ok {
				missing++
				continue
			}
			row := normalize.Row{
				"full_name":  p.name(),
				"position":   p.Position,
				"owner_name": owner,
			}
			if fid, ok := xwalk[id]; ok {
				row["player_id"] = fid
			}
			if p.Team != nil {
				row["team"] = *p.Team
			}
			if p.Age != nil {
				row["age"] = *p.Age
			}
			rows = append(rows, row)
		}
	}
	if missing > 0 {
		f.log.Warn(ctx, "rostered players missing from directory",
			logger.String("league_id", leagueID), logger.Int("missing", missing))
	}

	return normalize.RosterBatch{
		Source:   f.Source(),
		Schema:   normalize.SchemaSleeperRoster,
		LeagueID: leagueID,
		Version:  contentVersion(rawRosters, rawUsers),
		Rows:     rows,
	}, nil
}

// ScoringSettings returns the league's points per stat.
func (f *SleeperFeed) ScoringSettings(ctx context.Context, leagueID string) (projection.Weights, error) {
	if leagueID == "" {
		return nil, ErrNoLeague
	}
	raw, err := f.get(ctx, f.baseURL+"/league/"+url.PathEscape(leagueID))
	if err != nil {
		metrics.RecordFeedError(f.Source())
		return nil, fetchErr(f.Source(), fmt.Errorf("league %s: %w", leagueID, err))
	}
	var league sleeperLeague
	if err := jsoniter.Unmarshal(raw, &league); err != nil {
		return nil, fetchErr(f.Source(), fmt.Errorf("%w: league: %v", ErrDecode, err))
	}
	if len(league.ScoringSettings) == 0 {
		return nil, fetchErr(f.Source(), fmt.Errorf("%w: league %s has no scoring settings", ErrDecode, leagueID))
	}
	return projection.Weights(league.ScoringSettings), nil
}

// crosswalk returns the id table, or nil when none is set or it cannot be
// loaded; rows then resolve by name alone.
func (f *SleeperFeed) crosswalk(ctx context.Context) map[string]string {
	if f.ids == nil {
		return nil
	}
	ids, err := f.ids.FantasyProsIDs(ctx)
	if err != nil {
		f.log.Warn(ctx, "player id map unavailable, resolving roster by name", logger.Error(err))
		return nil
	}
	return ids
}

// directory returns the cached player directory, reloading it after dirTTL.
// A failed reload keeps serving the previous copy.
func (f *SleeperFeed) directory(ctx context.Context) (map[string]sleeperPlayer, error) {
	f.dirMu.Lock()
	defer f.dirMu.Unlock()
	if f.dir != nil && time.Since(f.dirAt) < f.dirTTL {
		return f.dir, nil
	}

	raw, err := f.get(ctx, f.baseURL+"/players/nfl")
	if err == nil {
		var dir map[string]sleeperPlayer
		if err = jsoniter.Unmarshal(raw, &dir); err == nil {
			f.dir, f.dirAt = dir, time.Now()
			f.log.Info(ctx, "sleeper player directory loaded", logger.Int("players", len(dir)))
			return dir, nil
		}
		err = fmt.Errorf("%w: players: %v", ErrDecode, err)
	}
	if f.dir != nil {
		f.log.Warn(ctx, "sleeper directory reload failed, serving cached copy", logger.Error(err))
		return f.dir, nil
	}
	return nil, fmt.Errorf("player directory: %w", err)
}
