package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists geocode entries in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "cache: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	key        TEXT NOT NULL,
	provider   TEXT NOT NULL,
	matched    INTEGER NOT NULL,
	latitude   REAL NOT NULL DEFAULT 0,
	longitude  REAL NOT NULL DEFAULT 0,
	street     TEXT,
	city       TEXT,
	state      TEXT,
	zip        TEXT,
	zip4       TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (key, provider)
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_created_at ON geocode_cache(created_at);
`

// Migrate creates the cache schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "cache: sqlite migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key, provider string, ttl time.Duration) (*Entry, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	var e Entry
	var matched int
	err := s.db.QueryRowContext(ctx, `
		SELECT key, provider, matched, latitude, longitude,
		       COALESCE(street, ''), COALESCE(city, ''), COALESCE(state, ''),
		       COALESCE(zip, ''), COALESCE(zip4, ''), created_at
		FROM geocode_cache
		WHERE key = ? AND provider = ? AND created_at > ?`,
		key, provider, cutoff,
	).Scan(&e.Key, &e.Provider, &matched, &e.Latitude, &e.Longitude,
		&e.Street, &e.City, &e.State, &e.Zip, &e.Zip4, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite get")
	}
	e.Matched = matched != 0
	return &e, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	matched := 0
	if e.Matched {
		matched = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (key, provider, matched, latitude, longitude, street, city, state, zip, zip4, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key, provider) DO UPDATE SET
			matched    = excluded.matched,
			latitude   = excluded.latitude,
			longitude  = excluded.longitude,
			street     = excluded.street,
			city       = excluded.city,
			state      = excluded.state,
			zip        = excluded.zip,
			zip4       = excluded.zip4,
			created_at = excluded.created_at`,
		e.Key, e.Provider, matched, e.Latitude, e.Longitude,
		e.Street, e.City, e.State, e.Zip, e.Zip4, e.CreatedAt,
	)
	return eris.Wrap(err, "cache: sqlite put")
}

// DeleteExpired implements Store.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	res, err := s.db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE created_at <= ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite rows affected")
	}
	return n, nil
}
