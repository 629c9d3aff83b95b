// Package session persists per-session criteria state in the key-value
// store with TTL-based expiry. One writer per session: concurrent turns
// within a session are serialized by the caller, not here.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nivaas-cloud/propdex/internal/db"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
)

// defaultKeyPrefix is the engine's key namespace; overridable via
// WithKeyPrefix (storage.key_prefix in config).
const defaultKeyPrefix = "propdex:"

// DefaultTTL is the inactivity window after which a session's criteria
// state expires.
const DefaultTTL = 30 * time.Minute

// store is the consumer interface for session persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store keeps criteria state keyed by session id.
type Store struct {
	store  store
	ttl    time.Duration
	prefix string
}

// New creates a session store. A non-positive ttl falls back to the default.
func New(s store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{store: s, ttl: ttl, prefix: defaultKeyPrefix}
}

// WithKeyPrefix overrides the key namespace. Empty keeps the default.
func (s *Store) WithKeyPrefix(prefix string) *Store {
	if prefix != "" {
		s.prefix = prefix
	}
	return s
}

func (s *Store) key(sessionID string) string {
	return s.prefix + "session:" + sessionID
}

// Get loads the session state. found=false means the session is new or
// has expired.
func (s *Store) Get(ctx context.Context, sessionID string) (criteria.State, bool, error) {
	data, err := s.store.Get(ctx, s.key(sessionID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return criteria.NewState(), false, nil
		}
		return criteria.State{}, false, fmt.Errorf("session get %s: %w", sessionID, err)
	}

	var state criteria.State
	if err := json.Unmarshal(data, &state); err != nil {
		return criteria.State{}, false, fmt.Errorf("session decode %s: %w", sessionID, err)
	}
	if state.Sources == nil {
		state.Sources = make(map[criteria.Field]criteria.Source)
	}
	return state, true, nil
}

// Put stores the session state and refreshes its TTL.
func (s *Store) Put(ctx context.Context, sessionID string, state criteria.State) error {
	state.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session encode %s: %w", sessionID, err)
	}
	if err := s.store.SetWithTTL(ctx, s.key(sessionID), data, s.ttl); err != nil {
		return fmt.Errorf("session put %s: %w", sessionID, err)
	}
	return nil
}

// Delete drops the session state, e.g. on an explicit filter reset.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Del(ctx, s.key(sessionID)); err != nil {
		return fmt.Errorf("session delete %s: %w", sessionID, err)
	}
	return nil
}
