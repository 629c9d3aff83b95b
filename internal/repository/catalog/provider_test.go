package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nivaas-cloud/propdex/internal/db"
	domcat "github.com/nivaas-cloud/propdex/internal/domain/catalog"
)

type mockKV struct {
	data  map[string][]byte
	scans int
}

func newMockKV() *mockKV { return &mockKV{data: make(map[string][]byte)} }

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *mockKV) Scan(_ context.Context, pattern string) ([]string, error) {
	m.scans++
	var keys []string
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestProvider_ListAllParsesConfigurationsOnce(t *testing.T) {
	kv := newMockKV()
	p := New(kv, nil)
	ctx := context.Background()

	doc := []byte(`{
		"id": "P1", "name": "Brigade Horizon", "developer": "Brigade",
		"status": "under_construction", "locality": "Whitefield, East Bangalore",
		"zone": "East", "price_min_lakhs": 90, "price_max_lakhs": 140,
		"configurations": "{2BHK, 1200-1350, 90L}; {3BHK, 1650-1800, 1.4Cr}"
	}`)
	if err := p.Seed(ctx, doc, "P1"); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	items, err := p.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	units := items[0].Units
	if len(units) != 2 {
		t.Fatalf("units = %+v, want 2 parsed configurations", units)
	}
	if units[0] != (domcat.UnitConfiguration{Bedrooms: 2, PriceLakhs: 90, SizeMinSqft: 1200, SizeMaxSqft: 1350}) {
		t.Errorf("units[0] = %+v", units[0])
	}
	if units[1].PriceLakhs != 140 {
		t.Errorf("units[1].PriceLakhs = %v, want 140 (1.4Cr)", units[1].PriceLakhs)
	}
}

func TestProvider_MalformedItemSkipped(t *testing.T) {
	kv := newMockKV()
	p := New(kv, nil)
	ctx := context.Background()

	_ = p.Seed(ctx, []byte(`{"id": "OK", "locality": "Hebbal"}`), "OK")
	_ = p.Seed(ctx, []byte(`not json`), "BAD")

	items, err := p.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "OK" {
		t.Errorf("items = %+v, want only the well-formed item", items)
	}
}

type countingLister struct {
	calls int
	items []domcat.Item
	err   error
}

func (c *countingLister) ListAll(context.Context) ([]domcat.Item, error) {
	c.calls++
	return c.items, c.err
}

func TestSnapshotCache_ServesWithinTTL(t *testing.T) {
	inner := &countingLister{items: []domcat.Item{{ID: "P1"}}}
	cache := NewSnapshotCache(inner, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		items, err := cache.ListAll(ctx)
		if err != nil || len(items) != 1 {
			t.Fatalf("ListAll() #%d = (%v, %v)", i, items, err)
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 within TTL", inner.calls)
	}
}

func TestSnapshotCache_ErrorPropagatesWhenEmpty(t *testing.T) {
	inner := &countingLister{err: errors.New("store down")}
	cache := NewSnapshotCache(inner, time.Minute, nil)

	if _, err := cache.ListAll(context.Background()); err == nil {
		t.Fatal("ListAll() error = nil, want refresh failure to propagate")
	}
}
