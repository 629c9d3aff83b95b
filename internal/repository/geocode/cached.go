package geocode

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Resolver is the geocoding contract consumed by the relaxation controller.
type Resolver interface {
	Resolve(ctx context.Context, locality string) (lat, lon float64, found bool, err error)
}

type cacheEntry struct {
	lat, lon float64
	found    bool
}

// CachedResolver memoizes resolutions in process. Locality coordinates are
// effectively static, so entries never expire. Negative results are cached
// too: an unknown locality stays unknown until the process restarts.
type CachedResolver struct {
	inner      Resolver
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewCached creates a caching decorator. cacheTotal is a counter vec with
// label "result" ("hit"/"miss"); it may be nil in tests.
func NewCached(inner Resolver, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *CachedResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedResolver{
		inner:      inner,
		entries:    make(map[string]cacheEntry),
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Resolve returns a cached centroid or falls through to the inner resolver.
// Inner failures are not cached, so a transient store error does not pin a
// locality as unknown.
func (c *CachedResolver) Resolve(ctx context.Context, locality string) (float64, float64, bool, error) {
	key := strings.ToLower(strings.TrimSpace(locality))

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.inc("hit")
		return e.lat, e.lon, e.found, nil
	}

	c.inc("miss")

	lat, lon, found, err := c.inner.Resolve(ctx, locality)
	if err != nil {
		c.logger.Warn("geocode lookup failed", zap.String("locality", locality), zap.Error(err))
		return 0, 0, false, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{lat: lat, lon: lon, found: found}
	c.mu.Unlock()

	return lat, lon, found, nil
}

func (c *CachedResolver) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
