package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(t.Context()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestSQLite(t)

	entry := Entry{
		Key: "abc", Provider: "census", Matched: true,
		Latitude: 39.78, Longitude: -89.65,
		Street: "123 MAIN ST", City: "SPRINGFIELD", State: "IL",
		Zip: "62704", Zip4: "1234",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Put(t.Context(), entry))

	got, err := s.Get(t.Context(), "abc", "census", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Matched)
	assert.Equal(t, "123 MAIN ST", got.Street)
	assert.Equal(t, "1234", got.Zip4)
	assert.InDelta(t, 39.78, got.Latitude, 1e-9)
}

func TestSQLiteGet_Misses(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.Get(t.Context(), "absent", "census", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got, "a miss is nil, not an error")
}

func TestSQLiteGet_ExpiredEntry(t *testing.T) {
	s := newTestSQLite(t)

	old := Entry{
		Key: "abc", Provider: "census", Matched: true,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	require.NoError(t, s.Put(t.Context(), old))

	got, err := s.Get(t.Context(), "abc", "census", 24*time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got, "entries past the TTL are not returned")
}

func TestSQLitePut_Upsert(t *testing.T) {
	s := newTestSQLite(t)

	first := Entry{Key: "abc", Provider: "census", Matched: false, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Put(t.Context(), first))

	second := first
	second.Matched = true
	second.City = "SPRINGFIELD"
	require.NoError(t, s.Put(t.Context(), second))

	got, err := s.Get(t.Context(), "abc", "census", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Matched)
	assert.Equal(t, "SPRINGFIELD", got.City)
}

func TestSQLiteDeleteExpired(t *testing.T) {
	s := newTestSQLite(t)

	now := time.Now().UTC()
	require.NoError(t, s.Put(t.Context(), Entry{Key: "old", Provider: "census", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.Put(t.Context(), Entry{Key: "new", Provider: "census", CreatedAt: now}))

	n, err := s.DeleteExpired(t.Context(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.Get(t.Context(), "new", "census", time.Hour)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
