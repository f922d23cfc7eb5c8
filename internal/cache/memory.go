package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Memory is the in-memory read-through layer in front of a persistent
// Store. Lookups go memory → store → loader; population of the same key by
// concurrent callers is collapsed with single-flight so only one network
// call is in flight per key.
type Memory struct {
	mem    *gocache.Cache
	store  Store
	ttl    time.Duration
	flight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache effectiveness. A hit is any lookup served without
// invoking the loader; a miss invoked it.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewMemory creates the read-through layer. store may be nil, in which case
// only the in-memory tier is used.
func NewMemory(store Store, ttl time.Duration) *Memory {
	return &Memory{
		mem:   gocache.New(ttl, 2*ttl),
		store: store,
		ttl:   ttl,
	}
}

// flightKey scopes single-flight de-duplication per provider.
func flightKey(key, provider string) string {
	return provider + ":" + key
}

// GetOrLoad returns the cached entry for (key, provider) or invokes load to
// produce one, persisting the result for future hits.
func (m *Memory) GetOrLoad(ctx context.Context, key, provider string, load func(ctx context.Context) (*Entry, error)) (*Entry, error) {
	fk := flightKey(key, provider)

	if v, ok := m.mem.Get(fk); ok {
		m.hits.Add(1)
		return v.(*Entry), nil
	}

	v, err, _ := m.flight.Do(fk, func() (any, error) {
		// Re-check memory: another flight may have just populated it.
		if v, ok := m.mem.Get(fk); ok {
			m.hits.Add(1)
			return v.(*Entry), nil
		}

		if m.store != nil {
			if e, err := m.store.Get(ctx, key, provider, m.ttl); err == nil && e != nil {
				m.hits.Add(1)
				m.mem.SetDefault(fk, e)
				return e, nil
			}
		}

		m.misses.Add(1)
		e, err := load(ctx)
		if err != nil {
			return nil, err
		}

		e.Key = key
		e.Provider = provider
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}

		m.mem.SetDefault(fk, e)
		if m.store != nil {
			// Best-effort persist; a write failure must not fail the lookup.
			_ = m.store.Put(ctx, *e)
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Invalidate drops the in-memory entry for (key, provider).
func (m *Memory) Invalidate(key, provider string) {
	m.mem.Delete(flightKey(key, provider))
}

// Stats returns hit/miss counts since construction.
func (m *Memory) Stats() Stats {
	hits := m.hits.Load()
	misses := m.misses.Load()
	s := Stats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}
