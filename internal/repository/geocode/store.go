// Package geocode resolves locality names to coordinates. Coordinates are
// seeded into the key-value store by ingestion and are effectively
// static, so resolutions are cached indefinitely in process.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nivaas-cloud/propdex/internal/db"
	"github.com/nivaas-cloud/propdex/internal/domain/geo"
)

// defaultKeyPrefix is the engine's key namespace; overridable via
// WithKeyPrefix (storage.key_prefix in config).
const defaultKeyPrefix = "propdex:"

// coords is the stored JSON shape for a locality centroid.
type coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// store is the consumer interface for locality lookups (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store resolves localities from the key-value store.
type Store struct {
	store  store
	prefix string
}

// New creates a KV-backed geocoder.
func New(s store) *Store {
	return &Store{store: s, prefix: defaultKeyPrefix}
}

// WithKeyPrefix overrides the key namespace. Empty keeps the default.
func (s *Store) WithKeyPrefix(prefix string) *Store {
	if prefix != "" {
		s.prefix = prefix
	}
	return s
}

// Resolve looks up a locality centroid. found=false means the locality is
// unknown; infrastructure failures come back as an error.
func (s *Store) Resolve(ctx context.Context, locality string) (float64, float64, bool, error) {
	data, err := s.store.Get(ctx, s.key(locality))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("geocode %q: %w", locality, err)
	}

	var c coords
	if err := json.Unmarshal(data, &c); err != nil {
		return 0, 0, false, fmt.Errorf("geocode decode %q: %w", locality, err)
	}
	if !geo.ValidCoordinates(c.Lat, c.Lon) {
		return 0, 0, false, nil
	}
	return c.Lat, c.Lon, true, nil
}

// Seed writes a locality centroid. Used by the seeder command.
func (s *Store) Seed(ctx context.Context, locality string, lat, lon float64) error {
	data, err := json.Marshal(coords{Lat: lat, Lon: lon})
	if err != nil {
		return fmt.Errorf("geocode encode %q: %w", locality, err)
	}
	if err := s.store.Set(ctx, s.key(locality), data); err != nil {
		return fmt.Errorf("geocode seed %q: %w", locality, err)
	}
	return nil
}

// key returns the storage key for a locality, normalized so "Whitefield"
// and "whitefield " resolve identically.
func (s *Store) key(locality string) string {
	return s.prefix + "geo:locality:" + strings.ToLower(strings.TrimSpace(locality))
}
