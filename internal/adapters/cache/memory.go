package cache

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/okian/rosterlens/pkg/metrics"
)

// Memory is an in-process Store backed by a concurrent map.
type Memory[T any] struct {
	entries *xsync.Map[string, Entry[T]]
	s       settings

	stop chan struct{}
	once sync.Once
	now  func() time.Time
}

// NewMemory creates a memory store and starts its eviction loop when a
// retention is configured.
func NewMemory[T any](opts ...Option) *Memory[T] {
	m := &Memory[T]{
		entries: xsync.NewMap[string, Entry[T]](),
		s:       newSettings(opts),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if m.s.retention > 0 {
		go m.evictLoop()
	}
	return m
}

// Get returns the entry stored for leagueID.
func (m *Memory[T]) Get(_ context.Context, leagueID string) (Entry[T], bool, error) {
	e, ok := m.entries.Load(storeKey(leagueID))
	if !ok {
		metrics.RecordCacheMiss()
		return Entry[T]{}, false, nil
	}
	metrics.RecordCacheHit()
	return e, true, nil
}

// Put replaces the league's entry unless the stored one is newer.
func (m *Memory[T]) Put(_ context.Context, e Entry[T]) error {
	select {
	case <-m.stop:
		return ErrClosed
	default:
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = m.now()
	}
	m.entries.Compute(storeKey(e.Key.LeagueID), func(old Entry[T], loaded bool) (Entry[T], xsync.ComputeOp) {
		if loaded && old.StoredAt.After(e.StoredAt) {
			return old, xsync.CancelOp
		}
		return e, xsync.UpdateOp
	})
	return nil
}

// Len returns the number of stored leagues.
func (m *Memory[T]) Len() int {
	return m.entries.Size()
}

// Close stops the eviction loop.
func (m *Memory[T]) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory[T]) evictLoop() {
	ticker := time.NewTicker(m.s.evictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evict()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory[T]) evict() {
	if m.s.retention <= 0 {
		return
	}
	now := m.now()
	m.entries.Range(func(key string, e Entry[T]) bool {
		if e.Age(now) <= m.s.retention {
			return true
		}
		m.entries.Compute(key, func(cur Entry[T], loaded bool) (Entry[T], xsync.ComputeOp) {
			// An entry published after the sweep started survives.
			if !loaded || cur.Age(now) <= m.s.retention {
				return cur, xsync.CancelOp
			}
			return cur, xsync.DeleteOp
		})
		return true
	})
}
