package cache

import (
	"time"

	"github.com/okian/rosterlens/pkg/logger"
)

// Option configures a store.
type Option func(*settings)

type settings struct {
	retention     time.Duration
	evictInterval time.Duration
	keyPrefix     string
	log           logger.Logger
}

const (
	defaultRetention     = 24 * time.Hour
	defaultEvictInterval = 5 * time.Minute
	defaultKeyPrefix     = "rosterlens:snapshot:"
)

func newSettings(opts []Option) settings {
	s := settings{
		retention:     defaultRetention,
		evictInterval: defaultEvictInterval,
		keyPrefix:     defaultKeyPrefix,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithRetention sets how long an entry is kept after it was stored. Entries past
// their TTL are still useful as stale fallbacks, so retention is usually much
// longer than the snapshot TTL. Zero keeps entries forever.
func WithRetention(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// WithEvictInterval sets how often the memory store sweeps expired entries.
func WithEvictInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.evictInterval = d
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(p string) Option {
	return func(s *settings) {
		if p != "" {
			s.keyPrefix = p
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
