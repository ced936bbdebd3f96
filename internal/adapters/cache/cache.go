// Package cache stores the latest fused snapshot per league. A store keeps one
// entry per league: publishing a newer entry retires the previous one, and
// readers only ever see whole entries.
package cache

import (
	"context"
	"time"
)

// DefaultLeague is the store key used for the unowned (no league) view.
const DefaultLeague = "_default"

// Key identifies a snapshot by upstream data version and league.
type Key struct {
	DataVersion string `json:"data_version"`
	LeagueID    string `json:"league_id"`
}

// Entry is one stored value with the time it was published.
type Entry[T any] struct {
	Key      Key       `json:"key"`
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Age returns how long ago the entry was stored.
func (e Entry[T]) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Store memoizes entries per league.
type Store[T any] interface {
	// Get returns the current entry for leagueID. The bool is false on a miss.
	Get(ctx context.Context, leagueID string) (Entry[T], bool, error)

	// Put publishes e as the current entry for e.Key.LeagueID. An entry older
	// than the one already stored is ignored.
	Put(ctx context.Context, e Entry[T]) error

	// Close releases background resources.
	Close() error
}

func storeKey(leagueID string) string {
	if leagueID == "" {
		return DefaultLeague
	}
	return leagueID
}
