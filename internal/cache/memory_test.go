package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k1 := Key("123 Main St", "Springfield", "IL", "62704")
	k2 := Key("  123 MAIN ST ", "SPRINGFIELD", "il", " 62704")
	assert.Equal(t, k1, k2, "normalization makes keys case and whitespace insensitive")
	assert.Len(t, k1, 64)

	k3 := Key("124 Main St", "Springfield", "IL", "62704")
	assert.NotEqual(t, k1, k3)
}

func TestGetOrLoad(t *testing.T) {
	m := NewMemory(nil, time.Minute)

	loads := 0
	load := func(ctx context.Context) (*Entry, error) {
		loads++
		return &Entry{Matched: true, Latitude: 39.78, Longitude: -89.65}, nil
	}

	e1, err := m.GetOrLoad(t.Context(), "k1", "census", load)
	require.NoError(t, err)
	assert.True(t, e1.Matched)
	assert.Equal(t, "k1", e1.Key)
	assert.Equal(t, "census", e1.Provider)
	assert.False(t, e1.CreatedAt.IsZero())

	// Second call inside the TTL window is a memory hit.
	e2, err := m.GetOrLoad(t.Context(), "k1", "census", load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Same(t, e1, e2)
}

func TestGetOrLoad_ProviderScoped(t *testing.T) {
	m := NewMemory(nil, time.Minute)

	loads := 0
	load := func(ctx context.Context) (*Entry, error) {
		loads++
		return &Entry{Matched: true}, nil
	}

	_, err := m.GetOrLoad(t.Context(), "k1", "census", load)
	require.NoError(t, err)
	_, err = m.GetOrLoad(t.Context(), "k1", "google", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "same key under different providers loads twice")
}

func TestGetOrLoad_LoadErrorNotCached(t *testing.T) {
	m := NewMemory(nil, time.Minute)

	loads := 0
	load := func(ctx context.Context) (*Entry, error) {
		loads++
		if loads == 1 {
			return nil, errors.New("upstream down")
		}
		return &Entry{Matched: true}, nil
	}

	_, err := m.GetOrLoad(t.Context(), "k1", "census", load)
	require.Error(t, err)

	e, err := m.GetOrLoad(t.Context(), "k1", "census", load)
	require.NoError(t, err)
	assert.True(t, e.Matched)
	assert.Equal(t, 2, loads)
}

func TestGetOrLoad_SingleFlight(t *testing.T) {
	m := NewMemory(nil, time.Minute)

	var mu sync.Mutex
	loads := 0
	gate := make(chan struct{})
	load := func(ctx context.Context) (*Entry, error) {
		mu.Lock()
		loads++
		mu.Unlock()
		<-gate
		return &Entry{Matched: true}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.GetOrLoad(context.Background(), "k1", "census", load)
			assert.NoError(t, err)
		}()
	}

	time.Sleep(20 * time.Millisecond) // let the goroutines pile onto the flight
	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, loads, "concurrent callers share one load")
}

func TestGetOrLoad_StoreTier(t *testing.T) {
	store := newFakeStore()
	store.entries["k1|census"] = &Entry{Key: "k1", Provider: "census", Matched: true, City: "Springfield"}

	m := NewMemory(store, time.Minute)
	e, err := m.GetOrLoad(t.Context(), "k1", "census", func(ctx context.Context) (*Entry, error) {
		t.Fatal("loader must not run on a store hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Springfield", e.City)
}

func TestGetOrLoad_PersistsToStore(t *testing.T) {
	store := newFakeStore()
	m := NewMemory(store, time.Minute)

	_, err := m.GetOrLoad(t.Context(), "k1", "census", func(ctx context.Context) (*Entry, error) {
		return &Entry{Matched: true}, nil
	})
	require.NoError(t, err)

	persisted, ok := store.entries["k1|census"]
	require.True(t, ok)
	assert.True(t, persisted.Matched)
}

func TestInvalidate(t *testing.T) {
	m := NewMemory(nil, time.Minute)

	loads := 0
	load := func(ctx context.Context) (*Entry, error) {
		loads++
		return &Entry{Matched: true}, nil
	}

	_, err := m.GetOrLoad(t.Context(), "k1", "census", load)
	require.NoError(t, err)
	m.Invalidate("k1", "census")

	_, err = m.GetOrLoad(t.Context(), "k1", "census", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestStats(t *testing.T) {
	m := NewMemory(nil, time.Minute)

	load := func(ctx context.Context) (*Entry, error) {
		return &Entry{Matched: true}, nil
	}

	_, err := m.GetOrLoad(t.Context(), "k1", "census", load)
	require.NoError(t, err)
	_, err = m.GetOrLoad(t.Context(), "k1", "census", load)
	require.NoError(t, err)
	_, err = m.GetOrLoad(t.Context(), "k2", "census", load)
	require.NoError(t, err)

	s := m.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(2), s.Misses)
	assert.InDelta(t, 1.0/3.0, s.HitRate, 1e-9)
}

// fakeStore is an in-memory Store for read-through tests.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*Entry)}
}

func (f *fakeStore) Get(ctx context.Context, key, provider string, ttl time.Duration) (*Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[key+"|"+provider], nil
}

func (f *fakeStore) Put(ctx context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.Key+"|"+e.Provider] = &e
	return nil
}

func (f *fakeStore) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeStore) Close() error { return nil }
