// Package cache provides the two caches the resolution core depends on: an
// in-memory TTL layer for hot geocode results and a persistent per-provider
// geocode cache with sqlite and postgres backends. The two never share
// storage with the geometry snapshot, which is owned by the geometry store.
package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Entry is one cached geocode result for a (normalized address, provider)
// pair. Non-matches are cached too so repeated failures skip the network.
type Entry struct {
	Key       string    `json:"key"`
	Provider  string    `json:"provider"`
	Matched   bool      `json:"matched"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Street    string    `json:"street,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Zip       string    `json:"zip,omitempty"`
	Zip4      string    `json:"zip4,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the SHA-256 hex of the normalized (lowercased, trimmed)
// address components. The same address always hashes to the same key, so
// concurrent writers racing to populate an entry are idempotent upserts.
func Key(street, city, state, zip string) string {
	normalized := fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(street)),
		strings.ToLower(strings.TrimSpace(city)),
		strings.ToLower(strings.TrimSpace(state)),
		strings.TrimSpace(zip),
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}
