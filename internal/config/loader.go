package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "ROSTERLENS_"
	envFileVar = "ROSTERLENS_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if ROSTERLENS_CONFIG is set
//  3. env (prefix ROSTERLENS_); a double underscore descends into maps,
//     e.g. ROSTERLENS_UNRANKED_CUTOFF__RB=72
func Load(ctx context.Context) (*Config, error) {
	cfg := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		if key == envFileVar {
			return "", nil
		}
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key == "prewarm_leagues" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxTiers < 1:
		return fmt.Errorf("%w: max_tiers must be >= 1, got %d", ErrInvalidConfig, c.MaxTiers)
	case c.FetchTimeoutSeconds <= 0:
		return fmt.Errorf("%w: fetch_timeout_seconds must be positive", ErrInvalidConfig)
	case c.CacheTTL <= 0:
		return fmt.Errorf("%w: cache_ttl must be positive", ErrInvalidConfig)
	case c.MatchThreshold <= 0 || c.MatchThreshold > 1:
		return fmt.Errorf("%w: match_threshold must be in (0, 1], got %v", ErrInvalidConfig, c.MatchThreshold)
	case c.CurveExponent <= 0:
		return fmt.Errorf("%w: curve_exponent must be positive", ErrInvalidConfig)
	case c.RefreshWorkers < 1 || c.RefreshQueueSize < 1:
		return fmt.Errorf("%w: refresh_workers and refresh_queue_size must be >= 1", ErrInvalidConfig)
	}
	if c.CurrentWeek < 0 {
		return fmt.Errorf("%w: current_week must be >= 0", ErrInvalidConfig)
	}
	for i, r := range c.RankingSources() {
		switch r.Format {
		case FormatCSV, FormatECR:
		default:
			return fmt.Errorf("%w: rankings[%d].format must be csv or ecr, got %q", ErrInvalidConfig, i, r.Format)
		}
		switch {
		case r.URL == "":
			return fmt.Errorf("%w: rankings[%d].url must not be empty", ErrInvalidConfig, i)
		case r.Week < 0:
			return fmt.Errorf("%w: rankings[%d].week must be >= 0", ErrInvalidConfig, i)
		case r.ScoringLeague != "" && r.Format != FormatECR:
			return fmt.Errorf("%w: rankings[%d].scoring_league needs the ecr format", ErrInvalidConfig, i)
		case r.ScoringLeague != "" && r.Position == "":
			return fmt.Errorf("%w: rankings[%d].scoring_league needs a position", ErrInvalidConfig, i)
		}
	}
	for pos, n := range c.UnrankedCutoff {
		if n < 1 {
			return fmt.Errorf("%w: unranked_cutoff.%s must be >= 1", ErrInvalidConfig, pos)
		}
	}
	for pos, n := range c.WeeklyUnrankedCutoff {
		if n < 1 {
			return fmt.Errorf("%w: weekly_unranked_cutoff.%s must be >= 1", ErrInvalidConfig, pos)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
