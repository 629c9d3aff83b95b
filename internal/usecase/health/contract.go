package health

import (
	"context"

	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
)

// DBPinger checks key-value store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ExtractionChecker checks criteria-extraction provider availability.
type ExtractionChecker interface {
	HealthCheck(ctx context.Context) error
}

// CatalogLister loads the catalog snapshot; used to verify the engine
// has inventory to match against.
type CatalogLister interface {
	ListAll(ctx context.Context) ([]catalog.Item, error)
}
