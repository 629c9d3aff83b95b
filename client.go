// Package propdex is the embedded SDK for the propdex matching engine:
// a constraint-based inventory matcher for conversational real-estate
// search, backed by a Redis catalog and session store.
package propdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/db"
	dbRedis "github.com/nivaas-cloud/propdex/internal/db/redis"
	catalogrepo "github.com/nivaas-cloud/propdex/internal/repository/catalog"
	geocoderepo "github.com/nivaas-cloud/propdex/internal/repository/geocode"
	sessionrepo "github.com/nivaas-cloud/propdex/internal/repository/session"
	"github.com/nivaas-cloud/propdex/internal/usecase/extract"
	"github.com/nivaas-cloud/propdex/internal/usecase/matcher"
	"github.com/nivaas-cloud/propdex/internal/usecase/relax"
	searchuc "github.com/nivaas-cloud/propdex/internal/usecase/search"
	"github.com/nivaas-cloud/propdex/internal/usecase/upsell"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the propdex SDK entry point.
type Client struct {
	store     db.Store
	searchSvc *searchuc.Service
	snapshot  *catalogrepo.SnapshotCache
	logger    *zap.Logger
}

// New creates a propdex Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("propdex: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("propdex: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("propdex: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	snapshotTTL := cfg.snapshotTTL
	if snapshotTTL <= 0 {
		snapshotTTL = catalogrepo.DefaultSnapshotTTL
	}
	sessionTTL := cfg.sessionTTL
	if sessionTTL <= 0 {
		sessionTTL = sessionrepo.DefaultTTL
	}

	provider := catalogrepo.New(store, logger).WithKeyPrefix(cfg.keyPrefix)
	snapshot := catalogrepo.NewSnapshotCache(provider, snapshotTTL, nil)
	sessions := sessionrepo.New(store, sessionTTL).WithKeyPrefix(cfg.keyPrefix)
	geocoder := geocoderepo.NewCached(geocoderepo.New(store).WithKeyPrefix(cfg.keyPrefix), nil, logger)

	matcherSvc := matcher.New(matcher.DefaultWeights())
	relaxer := relax.New(matcherSvc, geocoder, cfg.budgetLadder, logger).
		WithRadius(cfg.radiusKm, cfg.widenedRadiusKm)

	searchSvc := searchuc.New(
		snapshot, sessions, matcherSvc, relaxer,
		upsell.New(matcherSvc), cfg.topK, logger,
	)

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		snapshot:  snapshot,
		logger:    logger,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ClearSession drops the stored criteria state for a conversation.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	if err := c.searchSvc.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// parser builds the regex extractor with the catalog's locality
// vocabulary. Best effort: an unreachable catalog yields a blind parser.
func (c *Client) parser(ctx context.Context) *extract.Parser {
	items, err := c.snapshot.ListAll(ctx)
	if err != nil {
		return extract.NewParser(nil)
	}

	seen := make(map[string]struct{}, len(items))
	localities := make([]string, 0, len(items))
	for i := range items {
		loc := items[i].Location.PrimarySegment()
		if loc == "" {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		localities = append(localities, loc)
	}
	return extract.NewParser(localities)
}
