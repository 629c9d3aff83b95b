package session

import (
	"context"
	"testing"
	"time"

	"github.com/nivaas-cloud/propdex/internal/db"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
)

// mockKV is an in-memory KV store tracking the TTL used on writes.
type mockKV struct {
	data    map[string][]byte
	lastTTL time.Duration
}

func newMockKV() *mockKV { return &mockKV{data: make(map[string][]byte)} }

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.lastTTL = ttl
	return nil
}

func (m *mockKV) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestStore_RoundTrip(t *testing.T) {
	kv := newMockKV()
	s := New(kv, 0)
	ctx := context.Background()

	state := criteria.NewState()
	zone := "East"
	state.Criteria.Zone = &zone
	state.Sources[criteria.FieldZone] = criteria.SourceUI
	state.ShownItems = []string{"P1", "P2"}

	if err := s.Put(ctx, "conv-1", state); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if kv.lastTTL != DefaultTTL {
		t.Errorf("TTL = %v, want default %v", kv.lastTTL, DefaultTTL)
	}

	got, found, err := s.Get(ctx, "conv-1")
	if err != nil || !found {
		t.Fatalf("Get() = (%v, %v), want found", found, err)
	}
	if got.Criteria.Zone == nil || *got.Criteria.Zone != "East" {
		t.Errorf("Zone = %v, want East", got.Criteria.Zone)
	}
	if got.Sources[criteria.FieldZone] != criteria.SourceUI {
		t.Errorf("Sources[zone] = %q, want ui", got.Sources[criteria.FieldZone])
	}
	if len(got.ShownItems) != 2 {
		t.Errorf("ShownItems = %v, want 2 ids", got.ShownItems)
	}
}

func TestStore_KeyPrefix(t *testing.T) {
	kv := newMockKV()
	ctx := context.Background()

	s := New(kv, time.Minute)
	_ = s.Put(ctx, "conv-1", criteria.NewState())
	if _, ok := kv.data["propdex:session:conv-1"]; !ok {
		t.Errorf("keys = %v, want the default namespace", keysOf(kv))
	}

	custom := New(newMockKV(), time.Minute).WithKeyPrefix("tenant42:")
	kv2 := custom.store.(*mockKV)
	_ = custom.Put(ctx, "conv-1", criteria.NewState())
	if _, ok := kv2.data["tenant42:session:conv-1"]; !ok {
		t.Errorf("keys = %v, want the configured namespace", keysOf(kv2))
	}
}

func keysOf(kv *mockKV) []string {
	out := make([]string, 0, len(kv.data))
	for k := range kv.data {
		out = append(out, k)
	}
	return out
}

func TestStore_MissingSessionIsNotAnError(t *testing.T) {
	s := New(newMockKV(), time.Minute)

	state, found, err := s.Get(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("found = true for an unknown session")
	}
	if state.Sources == nil {
		t.Error("fresh state must have a usable Sources map")
	}
}

func TestStore_Delete(t *testing.T) {
	kv := newMockKV()
	s := New(kv, time.Minute)
	ctx := context.Background()

	_ = s.Put(ctx, "conv-1", criteria.NewState())
	if err := s.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := s.Get(ctx, "conv-1"); found {
		t.Error("session still present after Delete")
	}
}
