// Package catalog loads immutable catalog snapshots from the key-value
// store. Items are written by the ingestion process as JSON documents;
// the semi-structured unit configuration string is parsed exactly once
// here, at load time, never per query.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
)

// defaultKeyPrefix is the engine's key namespace; overridable via
// WithKeyPrefix (storage.key_prefix in config).
const defaultKeyPrefix = "propdex:"

// itemDoc is the stored shape of a catalog item. Configurations carries
// the raw embedded string; Units is the typed form when ingestion already
// parsed it. Exactly one of the two is expected.
type itemDoc struct {
	ID             string                      `json:"id"`
	Name           string                      `json:"name"`
	Developer      string                      `json:"developer"`
	Status         string                      `json:"status"`
	PropertyType   string                      `json:"property_type"`
	PossessionYear int                         `json:"possession_year"`
	PossessionQtr  int                         `json:"possession_quarter"`
	Locality       string                      `json:"locality"`
	Zone           string                      `json:"zone"`
	Lat            *float64                    `json:"lat,omitempty"`
	Lon            *float64                    `json:"lon,omitempty"`
	PriceMinLakhs  float64                     `json:"price_min_lakhs"`
	PriceMaxLakhs  float64                     `json:"price_max_lakhs"`
	Configurations string                      `json:"configurations,omitempty"`
	Units          []catalog.UnitConfiguration `json:"units,omitempty"`
}

// store is the consumer interface for catalog reads (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Provider reads catalog items from the key-value store.
type Provider struct {
	store  store
	logger *zap.Logger
	prefix string
}

// New creates a KV-backed catalog provider.
func New(s store, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{store: s, logger: logger, prefix: defaultKeyPrefix}
}

// WithKeyPrefix overrides the key namespace. Empty keeps the default.
func (p *Provider) WithKeyPrefix(prefix string) *Provider {
	if prefix != "" {
		p.prefix = prefix
	}
	return p
}

func (p *Provider) itemKey(id string) string { return p.prefix + "catalog:item:" + id }

// ListAll loads a point-in-time snapshot of every catalog item, ordered
// by id for stable iteration.
func (p *Provider) ListAll(ctx context.Context) ([]catalog.Item, error) {
	keys, err := p.store.Scan(ctx, p.itemKey("*"))
	if err != nil {
		return nil, fmt.Errorf("catalog scan: %w", err)
	}
	sort.Strings(keys)

	items := make([]catalog.Item, 0, len(keys))
	for _, key := range keys {
		data, err := p.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("catalog get %s: %w", key, err)
		}

		var doc itemDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			p.logger.Warn("skipping malformed catalog item", zap.String("key", key), zap.Error(err))
			continue
		}

		items = append(items, p.toDomain(doc))
	}

	return items, nil
}

// Seed writes a catalog item document. Used by the seeder command.
func (p *Provider) Seed(ctx context.Context, doc []byte, id string) error {
	if err := p.store.Set(ctx, p.itemKey(id), doc); err != nil {
		return fmt.Errorf("catalog seed %s: %w", id, err)
	}
	return nil
}

func (p *Provider) toDomain(doc itemDoc) catalog.Item {
	units := doc.Units
	if len(units) == 0 && doc.Configurations != "" {
		parsed, skipped := catalog.ParseUnitConfigurations(doc.Configurations)
		if skipped > 0 {
			p.logger.Warn("dropped unparseable unit configurations",
				zap.String("item", doc.ID), zap.Int("skipped", skipped))
		}
		units = parsed
	}

	return catalog.Item{
		ID:            doc.ID,
		Name:          doc.Name,
		Developer:     doc.Developer,
		Status:        doc.Status,
		PropertyType:  doc.PropertyType,
		Possession:    catalog.Possession{Year: doc.PossessionYear, Quarter: doc.PossessionQtr},
		Location:      catalog.Location{Locality: doc.Locality, Zone: doc.Zone, Lat: doc.Lat, Lon: doc.Lon},
		PriceMinLakhs: doc.PriceMinLakhs,
		PriceMaxLakhs: doc.PriceMaxLakhs,
		Units:         units,
	}
}
