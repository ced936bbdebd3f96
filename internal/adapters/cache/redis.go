package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/okian/rosterlens/pkg/logger"
	"github.com/okian/rosterlens/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisClient is the subset of the go-redis client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis is a Store that keeps JSON-encoded entries in Redis so several
// processes share built snapshots.
type Redis[T any] struct {
	client RedisClient
	s      settings
}

// NewRedis connects to addr and verifies the connection.
func NewRedis[T any](ctx context.Context, addr string, opts ...Option) (*Redis[T], error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: connect to redis at %s: %v", ErrStore, addr, err)
	}

	r := NewRedisWithClient[T](rdb, opts...)
	r.s.log.Info(ctx, "connected to redis snapshot store", logger.String("addr", addr))
	return r, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient[T any](client RedisClient, opts ...Option) *Redis[T] {
	return &Redis[T]{client: client, s: newSettings(opts)}
}

func (r *Redis[T]) key(leagueID string) string {
	return r.s.keyPrefix + storeKey(leagueID)
}

// Get loads and decodes the league's entry.
func (r *Redis[T]) Get(ctx context.Context, leagueID string) (Entry[T], bool, error) {
	raw, err := r.client.Get(ctx, r.key(leagueID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return Entry[T]{}, false, nil
	}
	if err != nil {
		return Entry[T]{}, false, fmt.Errorf("%w: get %s: %v", ErrStore, leagueID, err)
	}
	var e Entry[T]
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry[T]{}, false, fmt.Errorf("%w: %s: %v", ErrDecode, leagueID, err)
	}
	metrics.RecordCacheHit()
	return e, true, nil
}

// Put encodes e and overwrites the league's key. Redis replaces the value
// atomically, so readers never observe a partial snapshot.
func (r *Redis[T]) Put(ctx context.Context, e Entry[T]) error {
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStore, e.Key.LeagueID, err)
	}
	if err := r.client.Set(ctx, r.key(e.Key.LeagueID), raw, r.s.retention).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrStore, e.Key.LeagueID, err)
	}
	return nil
}

// Close closes the client.
func (r *Redis[T]) Close() error {
	return r.client.Close()
}
