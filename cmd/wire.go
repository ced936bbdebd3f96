package main

import (
	"context"
	"fmt"

	"github.com/okian/rosterlens/internal/adapters/cache"
	"github.com/okian/rosterlens/internal/adapters/feed"
	service "github.com/okian/rosterlens/internal/app"
	"github.com/okian/rosterlens/internal/config"
	"github.com/okian/rosterlens/internal/domain/efficiency"
	"github.com/okian/rosterlens/internal/domain/model"
	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/internal/domain/tiers"
	"github.com/okian/rosterlens/internal/domain/trade"
	"github.com/okian/rosterlens/pkg/logger"
)

// serviceOptions translates configuration into engine options. The store is
// left to newService so this stays free of I/O.
func serviceOptions(cfg *config.Config, log logger.Logger) ([]service.Option, error) {
	feedOpts := []feed.Option{
		feed.WithRequestsPerMinute(cfg.RequestsPerMinute),
		feed.WithLogger(log.Named("feed")),
	}

	var sleeper *feed.SleeperFeed
	if cfg.SleeperBaseURL != "" {
		sleeper = feed.NewSleeperFeed(cfg.SleeperBaseURL, feedOpts...)
		if cfg.IDMapURL != "" {
			sleeper.UseCrosswalk(feed.NewIDMap(cfg.IDMapURL, feedOpts...))
		}
	}

	rankings, err := rankingFeeds(cfg.RankingSources(), sleeper, feedOpts)
	if err != nil {
		return nil, err
	}

	seasonal, weekly := cfg.Cutoffs()
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithRankingFeeds(rankings...),
		service.WithCacheTTL(cfg.CacheTTL),
		service.WithFetchTimeout(cfg.FetchTimeout()),
		service.WithPrewarmWorkers(cfg.RefreshWorkers),
		service.WithNormalizerOptions(
			normalize.WithMatchThreshold(cfg.MatchThreshold),
			normalize.WithLogger(log.Named("normalize")),
		),
		service.WithTierOptions(
			tiers.WithMaxTiers(cfg.MaxTiers),
			tiers.WithCutoffs(seasonal, weekly),
			tiers.WithLogger(log.Named("tiers")),
		),
		service.WithTradeOptions(
			trade.WithCurveExponent(cfg.CurveExponent),
			trade.WithScarcityExponent(cfg.ScarcityExponent),
			trade.WithAgeDecay(cfg.AgeDecay),
			trade.WithAgeThresholds(cfg.AgeThresholds()),
		),
		service.WithEfficiencyOptions(
			efficiency.WithMinSeasonPoints(cfg.MinSeasonPoints),
			efficiency.WithCurrentWeek(cfg.CurrentWeek),
			efficiency.WithLogger(log.Named("efficiency")),
		),
	}
	if sleeper != nil {
		opts = append(opts, service.WithRosterFeed(sleeper), service.WithScoringFeed(sleeper))
	}
	if cfg.PointsURL != "" {
		opts = append(opts, service.WithPointsFeed(feed.NewCSVPointsFeed(cfg.PointsURL, normalize.SchemaOpportunity, feedOpts...)))
	}
	if cfg.ProjectionsURL != "" {
		opts = append(opts, service.WithProjectionFeed(feed.NewCSVProjectionFeed(cfg.ProjectionsURL, normalize.SchemaProjection, feedOpts...)))
	}
	return opts, nil
}

// rankingFeeds builds one feed per configured source, in order.
func rankingFeeds(sources []config.RankingSource, sleeper *feed.SleeperFeed, feedOpts []feed.Option) ([]feed.RankingFeed, error) {
	feeds := make([]feed.RankingFeed, 0, len(sources))
	for i, src := range sources {
		scope, err := model.ParseScope(src.Scope)
		if err != nil {
			return nil, fmt.Errorf("%w: rankings[%d].scope: %v", config.ErrInvalidConfig, i, err)
		}
		switch {
		case src.ScoringLeague != "":
			if sleeper == nil {
				return nil, fmt.Errorf("%w: rankings[%d].scoring_league needs sleeper_base_url", config.ErrInvalidConfig, i)
			}
			pos := model.ParsePosition(src.Position)
			if pos == model.Other {
				return nil, fmt.Errorf("%w: rankings[%d].position %q is not a skill position", config.ErrInvalidConfig, i, src.Position)
			}
			feeds = append(feeds, feed.NewLeagueECRFeed(src.URL, pos, scope, src.Week, sleeper, src.ScoringLeague, feedOpts...))
		case src.Format == config.FormatECR:
			feeds = append(feeds, feed.NewECRFeed(src.URL, scope, src.Week, feedOpts...))
		default:
			feeds = append(feeds, feed.NewCSVRankingFeed(src.URL, normalize.SchemaDynastyProcess, scope, feedOpts...))
		}
	}
	return feeds, nil
}

// newService wires the engine and its snapshot store.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	opts, err := serviceOptions(cfg, log)
	if err != nil {
		return nil, err
	}
	storeOpts := []cache.Option{
		cache.WithRetention(cfg.CacheTTL * 24),
		cache.WithLogger(log.Named("cache")),
	}
	if cfg.RedisAddr != "" {
		store, err := cache.NewRedis[*service.Snapshot](ctx, cfg.RedisAddr, storeOpts...)
		if err != nil {
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		opts = append(opts, service.WithStore(store))
	} else {
		opts = append(opts, service.WithStore(cache.NewMemory[*service.Snapshot](storeOpts...)))
	}
	return service.New(opts...), nil
}
