// Package config defines engine configuration structures and loading hooks.
package config

import (
	"context"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxTiers bounds the number of tiers per (position, scope) group.
	MaxTiers int `koanf:"max_tiers"`

	// UnrankedCutoff is the tiering depth per position for dynasty and draft scope.
	UnrankedCutoff map[string]int `koanf:"unranked_cutoff"`

	// WeeklyUnrankedCutoff is the tiering depth per position for weekly scope.
	WeeklyUnrankedCutoff map[string]int `koanf:"weekly_unranked_cutoff"`

	// FetchTimeoutSeconds bounds every upstream pull.
	FetchTimeoutSeconds float64 `koanf:"fetch_timeout_seconds"`

	// CacheTTL is the age after which a snapshot is rebuilt even without a version bump.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// MatchThreshold is the minimum Jaro-Winkler similarity for fuzzy identity matches.
	MatchThreshold float64 `koanf:"match_threshold"`

	// MinSeasonPoints drops season efficiency rows at or below this actual total.
	MinSeasonPoints float64 `koanf:"min_season_points"`

	// CurrentWeek switches efficiency to the in-season cutoff of
	// current_week-1 points. Zero is the offseason.
	CurrentWeek int `koanf:"current_week"`

	// Trade value curve.
	CurveExponent    float64            `koanf:"curve_exponent"`
	ScarcityExponent float64            `koanf:"scarcity_exponent"`
	AgeDecay         float64            `koanf:"age_decay"`
	AgeThreshold     map[string]float64 `koanf:"age_threshold"`

	// Rankings lists the ranking feeds. Empty means the DynastyProcess
	// dynasty consensus file.
	Rankings []RankingSource `koanf:"rankings"`

	// Upstream feeds.
	PointsURL         string `koanf:"points_url"`
	ProjectionsURL    string `koanf:"projections_url"`
	SleeperBaseURL    string `koanf:"sleeper_base_url"`
	IDMapURL          string `koanf:"id_map_url"`
	RequestsPerMinute int    `koanf:"requests_per_minute"`

	// RedisAddr selects the Redis snapshot store when set.
	RedisAddr string `koanf:"redis_addr"`

	// PrewarmLeagues are built at startup and refreshed in the background.
	PrewarmLeagues []string      `koanf:"prewarm_leagues"`
	RefreshEvery   time.Duration `koanf:"refresh_every"`

	// RefreshWorkers and RefreshQueueSize size the background refresh scheduler.
	RefreshWorkers   int `koanf:"refresh_workers"`
	RefreshQueueSize int `koanf:"refresh_queue_size"`
}

// Ranking formats.
const (
	FormatCSV = "csv"
	FormatECR = "ecr"
)

const (
	defaultRankingsURL = "https://github.com/dynastyprocess/data/raw/master/files/db_fpecr_latest.csv"
	defaultECRBaseURL  = "https://www.fantasypros.com/nfl/rankings"
)

// RankingSource configures one ranking feed.
type RankingSource struct {
	// URL of the CSV file or FantasyPros page. With ScoringLeague it is the
	// rankings base the page is chosen under.
	URL string `koanf:"url"`

	// Format is csv (DynastyProcess layout) or ecr (FantasyPros page).
	Format string `koanf:"format"`

	// Scope is dynasty, draft or weekly.
	Scope string `koanf:"scope"`

	// Week pins a weekly page's week; zero takes the week the page reports.
	Week int `koanf:"week"`

	// ScoringLeague picks the ecr page for Position that matches the
	// reception scoring of this Sleeper league.
	ScoringLeague string `koanf:"scoring_league"`
	Position      string `koanf:"position"`
}

// RankingSources returns the configured feeds with per-entry defaults
// filled in, or the default feed when none is configured.
func (c *Config) RankingSources() []RankingSource {
	if len(c.Rankings) == 0 {
		return []RankingSource{{URL: defaultRankingsURL, Format: FormatCSV, Scope: "dynasty"}}
	}
	out := make([]RankingSource, len(c.Rankings))
	for i, r := range c.Rankings {
		if r.Format == "" {
			r.Format = FormatCSV
			if r.ScoringLeague != "" {
				r.Format = FormatECR
			}
		}
		if r.Scope == "" {
			r.Scope = "dynasty"
			if r.ScoringLeague != "" {
				r.Scope = "weekly"
			}
		}
		if r.URL == "" && r.ScoringLeague != "" {
			r.URL = defaultECRBaseURL
		}
		out[i] = r
	}
	return out
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		MaxTiers:             8,
		UnrankedCutoff:       map[string]int{"qb": 32, "rb": 64, "wr": 96, "te": 32},
		WeeklyUnrankedCutoff: map[string]int{"qb": 24, "rb": 40, "wr": 60, "te": 24},
		FetchTimeoutSeconds:  10,
		CacheTTL:             time.Hour,
		MatchThreshold:       0.88,
		MinSeasonPoints:      17,
		CurveExponent:        2.2,
		ScarcityExponent:     0.5,
		AgeDecay:             0.15,
		AgeThreshold:         map[string]float64{"qb": 32, "rb": 26, "wr": 28, "te": 29},
		PointsURL:            "",
		SleeperBaseURL:       "https://api.sleeper.app/v1",
		IDMapURL:             "https://github.com/dynastyprocess/data/raw/master/files/db_playerids.csv",
		RequestsPerMinute:    60,
		RefreshEvery:         15 * time.Minute,
		RefreshWorkers:       2,
		RefreshQueueSize:     64,
	}
}

// FetchTimeout returns FetchTimeoutSeconds as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds * float64(time.Second))
}

// Cutoffs returns the dynasty and weekly cutoffs keyed by upper-case position.
func (c *Config) Cutoffs() (seasonal, weekly map[string]int) {
	return upperKeys(c.UnrankedCutoff), upperKeys(c.WeeklyUnrankedCutoff)
}

// AgeThresholds returns AgeThreshold keyed by upper-case position.
func (c *Config) AgeThresholds() map[string]float64 {
	return upperKeys(c.AgeThreshold)
}

// upperKeys folds position keys to upper case. Defaults are lower case, so a key
// a user spelled in upper case wins over the merged-in default.
func upperKeys[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		if k == strings.ToLower(k) {
			out[strings.ToUpper(k)] = v
		}
	}
	for k, v := range in {
		if k != strings.ToLower(k) {
			out[strings.ToUpper(k)] = v
		}
	}
	return out
}
