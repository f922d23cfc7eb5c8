package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/district-cli/internal/config"
)

// Store is the persistent geocode-cache backend.
type Store interface {
	// Get returns the entry for (key, provider) if it exists and is younger
	// than ttl, or nil without error when absent or expired.
	Get(ctx context.Context, key, provider string, ttl time.Duration) (*Entry, error)

	// Put upserts an entry. Writes are idempotent per (key, provider).
	Put(ctx context.Context, e Entry) error

	// DeleteExpired removes entries older than ttl and reports how many.
	DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error)

	Close() error
}

// Open constructs the Store named by the cache configuration.
func Open(ctx context.Context, cfg config.Cache) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		s, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close() //nolint:errcheck
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}
