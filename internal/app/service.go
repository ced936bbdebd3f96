// Package service implements the fusion engine: it pulls upstream feeds,
// normalizes and merges them, derives tiers, trade values, efficiency and
// league-scored projections, and publishes the result as one immutable
// snapshot per league.
package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okian/rosterlens/internal/adapters/cache"
	"github.com/okian/rosterlens/internal/adapters/feed"
	"github.com/okian/rosterlens/internal/domain/efficiency"
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/internal/domain/ownership"
	"github.com/okian/rosterlens/internal/domain/projection"
	"github.com/okian/rosterlens/internal/domain/tiers"
	"github.com/okian/rosterlens/internal/domain/trade"
	"github.com/okian/rosterlens/pkg/logger"
	"github.com/okian/rosterlens/pkg/metrics"
)

const (
	defaultCacheTTL       = time.Hour
	defaultFetchTimeout   = 10 * time.Second
	defaultPrewarmWorkers = 4
)

// Service builds and caches fused snapshots.
type Service struct {
	rankings []feed.RankingFeed
	rosters  feed.RosterFeed
	points   feed.PointsFeed
	projFeed feed.ProjectionFeed
	scoring  feed.ScoringFeed
	store    cache.Store[*Snapshot]
	expect   efficiency.ExpectationModel

	normalizeOpts  []normalize.Option
	tierOpts       []tiers.Option
	tradeOpts      []trade.Option
	efficiencyOpts []efficiency.Option

	normalizer *normalize.Normalizer
	tiers      *tiers.Engine
	merger     *ownership.Merger
	efficiency *efficiency.Calculator
	projector  *projection.Calculator

	ttl            time.Duration
	fetchTimeout   time.Duration
	prewarmWorkers int

	flight singleflight.Group
	now    func() time.Time
	logger logger.Logger
}

// New constructs a Service. Without WithStore snapshots live in memory.
func New(opts ...Option) *Service {
	s := &Service{
		ttl:            defaultCacheTTL,
		fetchTimeout:   defaultFetchTimeout,
		prewarmWorkers: defaultPrewarmWorkers,
		now:            time.Now,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = cache.NewMemory[*Snapshot]()
	}

	s.normalizer = normalize.New(append([]normalize.Option{normalize.WithLogger(s.logger.Named("normalize"))}, s.normalizeOpts...)...)
	s.tiers = tiers.New(append([]tiers.Option{tiers.WithLogger(s.logger.Named("tiers"))}, s.tierOpts...)...)
	s.merger = ownership.New(ownership.WithLogger(s.logger.Named("ownership")))
	s.efficiency = efficiency.New(append([]efficiency.Option{efficiency.WithLogger(s.logger.Named("efficiency"))}, s.efficiencyOpts...)...)
	s.projector = projection.New(projection.WithLogger(s.logger.Named("projection")))
	return s
}

// Close releases the snapshot store.
func (s *Service) Close() error {
	return s.store.Close()
}

// GetSnapshot returns the snapshot for leagueID; "" is default mode with no
// ownership overlay. A cached snapshot younger than the TTL is served as is.
// Otherwise the pipeline runs; if the rankings cannot be fetched the last good
// snapshot is returned flagged Stale, and without one the FetchError is
// returned.
func (s *Service) GetSnapshot(ctx context.Context, leagueID string) (*Snapshot, error) {
	return s.snapshot(ctx, leagueID, false)
}

// Refresh rebuilds the league's snapshot regardless of its age.
func (s *Service) Refresh(ctx context.Context, leagueID string) error {
	_, err := s.snapshot(ctx, leagueID, true)
	return err
}

func (s *Service) snapshot(ctx context.Context, leagueID string, force bool) (*Snapshot, error) {
	prev, ok, err := s.store.Get(ctx, leagueID)
	if err != nil {
		s.logger.Warn(ctx, "snapshot store read failed", logger.String("league_id", leagueID), logger.Error(err))
		ok = false
	}
	if ok && !force && prev.Age(s.now()) < s.ttl {
		metrics.RecordSnapshot("cached")
		return prev.Value, nil
	}

	var last *cache.Entry[*Snapshot]
	if ok {
		last = &prev
	}
	v, err, shared := s.flight.Do(cacheKey(leagueID), func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx), leagueID, last)
	})
	if shared {
		s.logger.Debug(ctx, "snapshot build shared", logger.String("league_id", leagueID))
	}
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// pulled holds the result of one round of upstream pulls.
type pulled struct {
	rankings  []normalize.RankingBatch
	rankErrs  []error
	roster    *normalize.RosterBatch
	rosterErr error
	points    *normalize.PointsBatch
	pointsErr error
	proj      *normalize.ProjectionBatch
	projErr   error
	weights   projection.Weights
	weightErr error
}

func (s *Service) refresh(ctx context.Context, leagueID string, last *cache.Entry[*Snapshot]) (*Snapshot, error) {
	start := time.Now()
	if len(s.rankings) == 0 {
		metrics.RecordSnapshot("failed")
		return nil, ErrNoRankingFeed
	}

	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	p := s.pull(fctx, leagueID)
	cancel()

	if len(p.rankings) == 0 {
		err := errors.Join(p.rankErrs...)
		if last != nil {
			s.logger.Warn(ctx, "rankings unavailable, serving stale snapshot",
				logger.String("league_id", leagueID), logger.String("data_version", last.Key.DataVersion), logger.Error(err))
			metrics.RecordSnapshot("stale")
			return last.Value.stale("rankings unavailable: " + err.Error()), nil
		}
		s.logger.Error(ctx, "rankings unavailable and no cached snapshot", logger.String("league_id", leagueID), logger.Error(err))
		metrics.RecordSnapshot("failed")
		return nil, err
	}

	version := dataVersion(p)
	if last != nil && last.Key.DataVersion == version && !last.Value.Stale {
		// Same upstream data: republish the existing snapshot with a fresh age.
		entry := cache.Entry[*Snapshot]{Key: last.Key, Value: last.Value, StoredAt: s.now()}
		if err := s.store.Put(ctx, entry); err != nil {
			s.logger.Warn(ctx, "snapshot store write failed", logger.String("league_id", leagueID), logger.Error(err))
		}
		metrics.RecordSnapshot("unchanged")
		return last.Value, nil
	}

	snap, err := s.build(ctx, leagueID, version, p)
	if err != nil {
		metrics.RecordSnapshot("failed")
		return nil, err
	}
	entry := cache.Entry[*Snapshot]{
		Key:      cache.Key{DataVersion: version, LeagueID: leagueID},
		Value:    snap,
		StoredAt: snap.BuiltAt,
	}
	if err := s.store.Put(ctx, entry); err != nil {
		s.logger.Warn(ctx, "snapshot store write failed", logger.String("league_id", leagueID), logger.Error(err))
	}

	metrics.RecordSnapshot("built")
	metrics.RecordSnapshotBuildDuration(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "snapshot built",
		logger.String("league_id", leagueID), logger.String("data_version", version),
		logger.Int("players", len(snap.Players)), logger.Int("tiers", len(snap.Tiers)),
		logger.Int("warnings", len(snap.Warnings)), logger.Duration("took", time.Since(start)))
	return snap, nil
}

// pull runs every upstream pull concurrently. Failures are kept per source so
// each one degrades only the sections that depend on it.
func (s *Service) pull(ctx context.Context, leagueID string) pulled {
	var (
		p  pulled
		mu sync.Mutex
		g  errgroup.Group
	)
	batches := make([]*normalize.RankingBatch, len(s.rankings))
	for i, f := range s.rankings {
		g.Go(func() error {
			b, err := f.Pull(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.rankErrs = append(p.rankErrs, err)
				return nil
			}
			batches[i] = &b
			return nil
		})
	}
	if leagueID != "" {
		g.Go(func() error {
			if s.rosters == nil {
				p.rosterErr = ErrNoRosterFeed
				return nil
			}
			b, err := s.rosters.Pull(ctx, leagueID)
			if err != nil {
				p.rosterErr = err
				return nil
			}
			p.roster = &b
			return nil
		})
	}
	if s.points != nil {
		g.Go(func() error {
			b, err := s.points.Pull(ctx)
			if err != nil {
				p.pointsErr = err
				return nil
			}
			p.points = &b
			return nil
		})
	}
	if leagueID != "" && s.projFeed != nil && s.scoring != nil {
		g.Go(func() error {
			b, err := s.projFeed.Pull(ctx)
			if err != nil {
				p.projErr = err
				return nil
			}
			p.proj = &b
			return nil
		})
		g.Go(func() error {
			w, err := s.scoring.ScoringSettings(ctx, leagueID)
			if err != nil {
				p.weightErr = err
				return nil
			}
			p.weights = w
			return nil
		})
	}
	_ = g.Wait()

	for _, b := range batches {
		if b != nil {
			p.rankings = append(p.rankings, *b)
		}
	}
	return p
}

func (s *Service) build(ctx context.Context, leagueID, version string, p pulled) (*Snapshot, error) {
	snap := &Snapshot{
		ID:          uuid.NewString(),
		DataVersion: version,
		LeagueID:    leagueID,
		BuiltAt:     s.now(),
		Sections:    make(map[Section]Availability, len(Sections)),
	}
	for _, err := range p.rankErrs {
		snap.Warnings = append(snap.Warnings, "ranking source unavailable: "+err.Error())
	}

	var rosters []normalize.RosterBatch
	if p.roster != nil {
		rosters = append(rosters, *p.roster)
	}
	res, err := s.normalizer.Normalize(ctx, p.rankings, rosters)
	if err != nil {
		return nil, fmt.Errorf("%w: normalize: %v", ErrBuild, err)
	}
	snap.Players = res.Players
	snap.Rankings = res.Rankings
	snap.IdentityDrop = len(res.Dropped)

	snap.Tiers = s.tiers.ComputeAll(ctx, res.Rankings)
	snap.Sections[SectionTiers] = available()
	recordTierCounts(snap.Tiers)

	snap.TradeValues = trade.NewPool(res.Players, res.Rankings, s.tradeOpts...).All()
	snap.Sections[SectionTradeValues] = available()

	switch {
	case leagueID == "":
		snap.Board = s.merger.Merge(ctx, res.Rankings, nil, "")
		snap.Sections[SectionOwnership] = available()
		snap.Sections[SectionTeamStrength] = unavailable("no league selected")
	case p.roster == nil:
		snap.Sections[SectionOwnership] = unavailable("roster unavailable")
		snap.Sections[SectionTeamStrength] = unavailable("roster unavailable")
		snap.Warnings = append(snap.Warnings, "roster unavailable: "+p.rosterErr.Error())
		metrics.RecordSectionDegraded(string(SectionOwnership))
	default:
		snap.Board = s.merger.Merge(ctx, res.Rankings, res.Ownership, leagueID)
		snap.Sections[SectionOwnership] = available()
		snap.TeamStrength = ownership.TeamStrength(snap.Board, snap.TradeValues, primaryScope(p.rankings))
		snap.Sections[SectionTeamStrength] = available()
		for _, c := range snap.Board.Conflicts {
			snap.Warnings = append(snap.Warnings, c.Error())
		}
	}

	switch {
	case s.points == nil:
		snap.Sections[SectionEfficiency] = unavailable("no points source configured")
	case p.points == nil:
		snap.Sections[SectionEfficiency] = unavailable("points unavailable")
		snap.Warnings = append(snap.Warnings, "points unavailable: "+p.pointsErr.Error())
		metrics.RecordSectionDegraded(string(SectionEfficiency))
	default:
		pts, err := s.normalizer.Points(ctx, res.Players, []normalize.PointsBatch{*p.points})
		if err != nil {
			snap.Sections[SectionEfficiency] = unavailable("points not recognized")
			snap.Warnings = append(snap.Warnings, "points: "+err.Error())
			metrics.RecordSectionDegraded(string(SectionEfficiency))
			break
		}
		m := s.expect
		if m == nil {
			m = efficiency.NewTableModel(pts)
		}
		snap.Efficiency = s.efficiency.Compute(ctx, pts, m)
		snap.Sections[SectionEfficiency] = available()
	}

	s.buildProjections(ctx, snap, leagueID, res.Players, p)
	return snap, nil
}

// buildProjections fills the league-scored projections section. It needs a
// league, its scoring settings and a projection source.
func (s *Service) buildProjections(ctx context.Context, snap *Snapshot, leagueID string, players []model.PlayerRef, p pulled) {
	switch {
	case s.projFeed == nil || s.scoring == nil:
		snap.Sections[SectionProjections] = unavailable("no projections source configured")
	case leagueID == "":
		snap.Sections[SectionProjections] = unavailable("no league selected")
	case p.weightErr != nil:
		snap.Sections[SectionProjections] = unavailable("league scoring unavailable")
		snap.Warnings = append(snap.Warnings, "league scoring unavailable: "+p.weightErr.Error())
		metrics.RecordSectionDegraded(string(SectionProjections))
	case p.projErr != nil:
		snap.Sections[SectionProjections] = unavailable("projections unavailable")
		snap.Warnings = append(snap.Warnings, "projections unavailable: "+p.projErr.Error())
		metrics.RecordSectionDegraded(string(SectionProjections))
	default:
		lines, err := s.normalizer.Projections(ctx, players, []normalize.ProjectionBatch{*p.proj})
		if err != nil {
			snap.Sections[SectionProjections] = unavailable("projections not recognized")
			snap.Warnings = append(snap.Warnings, "projections: "+err.Error())
			metrics.RecordSectionDegraded(string(SectionProjections))
			return
		}
		snap.Projections = s.projector.Project(ctx, lines, p.weights)
		snap.Sections[SectionProjections] = available()
	}
}

// Prewarm builds snapshots for several leagues concurrently. It returns the
// joined per-league errors; one failing league does not stop the others.
func (s *Service) Prewarm(ctx context.Context, leagueIDs []string) error {
	if len(leagueIDs) == 0 {
		return nil
	}
	pool := pond.NewPool(s.prewarmWorkers, pond.WithQueueSize(len(leagueIDs)))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, id := range leagueIDs {
		group.Submit(func() {
			if groupCtx.Err() != nil {
				return
			}
			if _, err := s.GetSnapshot(groupCtx, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("league %q: %w", id, err))
				mu.Unlock()
			}
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		errs = append(errs, err)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	s.logger.Info(ctx, "prewarm finished", logger.Int("leagues", len(leagueIDs)), logger.Int("failed", len(errs)))
	return errors.Join(errs...)
}

func cacheKey(leagueID string) string {
	if leagueID == "" {
		return cache.DefaultLeague
	}
	return leagueID
}

// dataVersion hashes the versions of every batch that fed the build, so any
// upstream change or a source dropping out yields a new version.
func dataVersion(p pulled) string {
	d := xxhash.New()
	for _, b := range p.rankings {
		_, _ = d.WriteString("rankings\x00" + b.Source + "\x00" + string(b.Scope) + "\x00" + strconv.Itoa(b.Week) + "\x00" + b.Version + "\x00")
	}
	if p.roster != nil {
		_, _ = d.WriteString("roster\x00" + p.roster.LeagueID + "\x00" + p.roster.Version + "\x00")
	} else if p.rosterErr != nil {
		_, _ = d.WriteString("roster\x00unavailable\x00")
	}
	if p.points != nil {
		_, _ = d.WriteString("points\x00" + p.points.Version + "\x00")
	} else if p.pointsErr != nil {
		_, _ = d.WriteString("points\x00unavailable\x00")
	}
	if p.proj != nil {
		_, _ = d.WriteString("projections\x00" + p.proj.Version + "\x00")
	} else if p.projErr != nil {
		_, _ = d.WriteString("projections\x00unavailable\x00")
	}
	if p.weights != nil {
		_, _ = d.WriteString("scoring\x00")
		for _, stat := range slices.Sorted(maps.Keys(p.weights)) {
			_, _ = d.WriteString(stat + "=" + strconv.FormatFloat(p.weights[stat], 'g', -1, 64) + "\x00")
		}
	} else if p.weightErr != nil {
		_, _ = d.WriteString("scoring\x00unavailable\x00")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// primaryScope is the season-long scope team strength is measured in.
func primaryScope(batches []normalize.RankingBatch) model.Scope {
	scope := model.Weekly
	for _, b := range batches {
		switch b.Scope {
		case model.Dynasty:
			return model.Dynasty
		case model.Draft:
			scope = model.Draft
		}
	}
	return scope
}

func recordTierCounts(ts []model.Tier) {
	counts := make(map[model.GroupKey]int)
	for _, t := range ts {
		if !t.Unranked {
			counts[model.GroupKey{Scope: t.Scope, Week: t.Week, Position: t.Position}]++
		}
	}
	for g, n := range counts {
		metrics.UpdateTierCount(string(g.Position), string(g.Scope), n)
	}
}
