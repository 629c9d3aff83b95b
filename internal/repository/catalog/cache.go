package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
)

// DefaultSnapshotTTL bounds how stale a served catalog snapshot may be.
const DefaultSnapshotTTL = 60 * time.Second

// Lister is the catalog contract consumed by the search pipeline.
type Lister interface {
	ListAll(ctx context.Context) ([]catalog.Item, error)
}

// SnapshotCache serves a point-in-time catalog snapshot, refreshing it
// from the inner provider when the TTL lapses. The cached slice is shared
// by concurrent readers and must be treated as immutable.
type SnapshotCache struct {
	inner        Lister
	ttl          time.Duration
	refreshTotal *prometheus.CounterVec

	mu          sync.RWMutex
	snapshot    []catalog.Item
	refreshedAt time.Time
}

// NewSnapshotCache creates the caching decorator. refreshTotal is a
// counter vec with label "status" ("ok"/"error"); it may be nil in tests.
func NewSnapshotCache(inner Lister, ttl time.Duration, refreshTotal *prometheus.CounterVec) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{inner: inner, ttl: ttl, refreshTotal: refreshTotal}
}

// ListAll returns the cached snapshot, refreshing first when stale. A
// refresh failure with no prior snapshot propagates; a failure with a
// still-live previous snapshot does not occur because staleness is
// checked before serving — errors always surface rather than silently
// extending a stale snapshot.
func (c *SnapshotCache) ListAll(ctx context.Context) ([]catalog.Item, error) {
	c.mu.RLock()
	fresh := c.snapshot != nil && time.Since(c.refreshedAt) < c.ttl
	snapshot := c.snapshot
	c.mu.RUnlock()
	if fresh {
		return snapshot, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if c.snapshot != nil && time.Since(c.refreshedAt) < c.ttl {
		return c.snapshot, nil
	}

	items, err := c.inner.ListAll(ctx)
	if err != nil {
		c.inc("error")
		return nil, fmt.Errorf("catalog snapshot refresh: %w", err)
	}

	c.snapshot = items
	c.refreshedAt = time.Now()
	c.inc("ok")
	return c.snapshot, nil
}

func (c *SnapshotCache) inc(status string) {
	if c.refreshTotal != nil {
		c.refreshTotal.WithLabelValues(status).Inc()
	}
}
