package cache

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore persists geocode entries in Postgres.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the database at databaseURL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	key        TEXT NOT NULL,
	provider   TEXT NOT NULL,
	matched    BOOLEAN NOT NULL,
	latitude   DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude  DOUBLE PRECISION NOT NULL DEFAULT 0,
	street     TEXT,
	city       TEXT,
	state      TEXT,
	zip        TEXT,
	zip4       TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (key, provider)
)`

// Migrate creates the cache schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "cache: postgres migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key, provider string, ttl time.Duration) (*Entry, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	var e Entry
	var street, city, state, zip, zip4 *string
	err := s.pool.QueryRow(ctx, `
		SELECT key, provider, matched, latitude, longitude, street, city, state, zip, zip4, created_at
		FROM geocode_cache
		WHERE key = $1 AND provider = $2 AND created_at > $3`,
		key, provider, cutoff,
	).Scan(&e.Key, &e.Provider, &e.Matched, &e.Latitude, &e.Longitude,
		&street, &city, &state, &zip, &zip4, &e.CreatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "cache: postgres get")
	}
	e.Street = deref(street)
	e.City = deref(city)
	e.State = deref(state)
	e.Zip = deref(zip)
	e.Zip4 = deref(zip4)
	return &e, nil
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO geocode_cache (key, provider, matched, latitude, longitude, street, city, state, zip, zip4, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (key, provider) DO UPDATE SET
			matched    = EXCLUDED.matched,
			latitude   = EXCLUDED.latitude,
			longitude  = EXCLUDED.longitude,
			street     = EXCLUDED.street,
			city       = EXCLUDED.city,
			state      = EXCLUDED.state,
			zip        = EXCLUDED.zip,
			zip4       = EXCLUDED.zip4,
			created_at = EXCLUDED.created_at`,
		e.Key, e.Provider, e.Matched, e.Latitude, e.Longitude,
		nilIfEmpty(e.Street), nilIfEmpty(e.City), nilIfEmpty(e.State),
		nilIfEmpty(e.Zip), nilIfEmpty(e.Zip4), e.CreatedAt,
	)
	return eris.Wrap(err, "cache: postgres put")
}

// DeleteExpired implements Store.
func (s *PostgresStore) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	tag, err := s.pool.Exec(ctx, `DELETE FROM geocode_cache WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres delete expired")
	}
	return tag.RowsAffected(), nil
}

// nilIfEmpty returns nil for empty strings, allowing NULL storage.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
