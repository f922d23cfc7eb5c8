package cache

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Now().UTC()
	street := "123 MAIN ST"
	mock.ExpectQuery("SELECT key, provider, matched").
		WithArgs("abc", "census", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"key", "provider", "matched", "latitude", "longitude",
			"street", "city", "state", "zip", "zip4", "created_at",
		}).AddRow("abc", "census", true, 39.78, -89.65, &street, nil, nil, nil, nil, created))

	s := NewPostgresWithPool(mock)
	got, err := s.Get(t.Context(), "abc", "census", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Matched)
	assert.Equal(t, "123 MAIN ST", got.Street)
	assert.Empty(t, got.City, "NULL columns come back empty")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet_NoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT key, provider, matched").
		WithArgs("absent", "census", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	s := NewPostgresWithPool(mock)
	got, err := s.Get(t.Context(), "absent", "census", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPut(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO geocode_cache").
		WithArgs("abc", "census", true, 39.78, -89.65,
			"123 MAIN ST", "SPRINGFIELD", "IL", "62704", nil, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresWithPool(mock)
	err = s.Put(t.Context(), Entry{
		Key: "abc", Provider: "census", Matched: true,
		Latitude: 39.78, Longitude: -89.65,
		Street: "123 MAIN ST", City: "SPRINGFIELD", State: "IL", Zip: "62704",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM geocode_cache").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	s := NewPostgresWithPool(mock)
	n, err := s.DeleteExpired(t.Context(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS geocode_cache").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	s := NewPostgresWithPool(mock)
	require.NoError(t, s.Migrate(t.Context()))
	require.NoError(t, mock.ExpectationsWereMet())
}
