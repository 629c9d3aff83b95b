package search

import (
	"context"

	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
	"github.com/nivaas-cloud/propdex/internal/usecase/matcher"
)

// CatalogProvider supplies immutable catalog snapshots.
type CatalogProvider interface {
	ListAll(ctx context.Context) ([]catalog.Item, error)
}

// SessionStore persists per-session criteria state.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (criteria.State, bool, error)
	Put(ctx context.Context, sessionID string, state criteria.State) error
	Delete(ctx context.Context, sessionID string) error
}

// Matcher runs a single hard-filter + scoring pass.
type Matcher interface {
	Match(c criteria.Criteria, snapshot []catalog.Item) ([]match.Result, matcher.Rejections)
}

// Relaxer drives the relaxation ladder when the exact pass is empty.
type Relaxer interface {
	Relax(ctx context.Context, c criteria.Criteria, snapshot []catalog.Item) ([]match.Result, *match.RelaxationStep, error)
}

// UpsellDetector scans for better-value additions under a budget ceiling.
type UpsellDetector interface {
	Detect(c criteria.Criteria, snapshot []catalog.Item, ceilingLakhs float64) []match.Result
}
