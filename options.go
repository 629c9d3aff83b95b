package propdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	sessionTTL  time.Duration
	snapshotTTL time.Duration

	topK            int
	budgetLadder    []float64
	radiusKm        float64
	widenedRadiusKm float64
	keyPrefix       string

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithCredentials sets the database username and logical database number.
func WithCredentials(username string, db int) Option {
	return func(c *clientConfig) {
		c.username = username
		c.db = db
	}
}

// WithSessionTTL sets how long conversational criteria state is kept.
// Default: 30 minutes.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.sessionTTL = ttl
	}
}

// WithSnapshotTTL sets the catalog snapshot cache lifetime.
// Default: 60 seconds.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.snapshotTTL = ttl
	}
}

// WithTopK sets the number of results returned per search turn.
// Default: 5.
func WithTopK(k int) Option {
	return func(c *clientConfig) {
		c.topK = k
	}
}

// WithKeyPrefix overrides the key namespace used in the store.
// Default: "propdex:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithBudgetLadder overrides the relaxation ladder multipliers.
func WithBudgetLadder(ladder []float64) Option {
	return func(c *clientConfig) {
		c.budgetLadder = ladder
	}
}

// WithRadius sets the base and widened radii (km) for the geographic
// relaxation step. Defaults: 10 and 15.
func WithRadius(radiusKm, widenedKm float64) Option {
	return func(c *clientConfig) {
		c.radiusKm = radiusKm
		c.widenedRadiusKm = widenedKm
	}
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
