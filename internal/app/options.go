package service

import (
	"time"

	"github.com/okian/rosterlens/internal/adapters/cache"
	"github.com/okian/rosterlens/internal/adapters/feed"
	"github.com/okian/rosterlens/internal/domain/efficiency"
	"github.com/okian/rosterlens/internal/domain/normalize"
	"github.com/okian/rosterlens/internal/domain/tiers"
	"github.com/okian/rosterlens/internal/domain/trade"
	"github.com/okian/rosterlens/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRankingFeeds sets the ranking sources. Batches are normalized in order,
// so the first feed wins source-order ties.
func WithRankingFeeds(feeds ...feed.RankingFeed) Option {
	return func(s *Service) {
		s.rankings = append(s.rankings[:0], feeds...)
	}
}

// WithRosterFeed sets the league roster source.
func WithRosterFeed(f feed.RosterFeed) Option {
	return func(s *Service) {
		s.rosters = f
	}
}

// WithPointsFeed sets the fantasy points source. Without one the efficiency
// section is unavailable.
func WithPointsFeed(f feed.PointsFeed) Option {
	return func(s *Service) {
		s.points = f
	}
}

// WithProjectionFeed sets the projected stats source. With a scoring feed it
// enables the projections section for leagues.
func WithProjectionFeed(f feed.ProjectionFeed) Option {
	return func(s *Service) {
		s.projFeed = f
	}
}

// WithScoringFeed sets the league scoring settings source.
func WithScoringFeed(f feed.ScoringFeed) Option {
	return func(s *Service) {
		s.scoring = f
	}
}

// WithStore sets the snapshot store.
func WithStore(st cache.Store[*Snapshot]) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithCacheTTL sets the age after which a cached snapshot is rebuilt.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithFetchTimeout bounds each refresh's upstream pulls.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithNormalizerOptions configures record normalization.
func WithNormalizerOptions(opts ...normalize.Option) Option {
	return func(s *Service) {
		s.normalizeOpts = append(s.normalizeOpts, opts...)
	}
}

// WithTierOptions configures tier clustering.
func WithTierOptions(opts ...tiers.Option) Option {
	return func(s *Service) {
		s.tierOpts = append(s.tierOpts, opts...)
	}
}

// WithTradeOptions configures the trade value curve.
func WithTradeOptions(opts ...trade.Option) Option {
	return func(s *Service) {
		s.tradeOpts = append(s.tradeOpts, opts...)
	}
}

// WithEfficiencyOptions configures the efficiency calculator.
func WithEfficiencyOptions(opts ...efficiency.Option) Option {
	return func(s *Service) {
		s.efficiencyOpts = append(s.efficiencyOpts, opts...)
	}
}

// WithExpectationModel replaces the default expectation, which is the
// expected points column delivered alongside actual points.
func WithExpectationModel(m efficiency.ExpectationModel) Option {
	return func(s *Service) {
		s.expect = m
	}
}

// WithPrewarmWorkers sets the Prewarm fan-out.
func WithPrewarmWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.prewarmWorkers = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
