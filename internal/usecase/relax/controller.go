// Package relax drives the constraint-relaxation ladder: budget
// multipliers first, then a geographic radius widening. Invoked only when
// the exact-match pass comes back empty.
package relax

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/geo"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
	"github.com/nivaas-cloud/propdex/internal/usecase/matcher"
)

// DefaultBudgetLadder is the canonical budget relaxation sequence,
// applied to the maximum price only.
var DefaultBudgetLadder = []float64{1.1, 1.2, 1.3, 1.4, 1.6, 1.8, 2.0}

// Radius defaults for the final geographic step.
const (
	DefaultRadiusKm = 10.0
	WidenedRadiusKm = 15.0
)

// Matcher runs a single scoring pass over the snapshot.
type Matcher interface {
	Match(c criteria.Criteria, snapshot []catalog.Item) ([]match.Result, matcher.Rejections)
}

// Geocoder resolves a locality name to coordinates. found=false means the
// locality is simply unknown; a non-nil error is an infrastructure failure.
type Geocoder interface {
	Resolve(ctx context.Context, locality string) (lat, lon float64, found bool, err error)
}

// Controller steps through the relaxation ladder, re-running the matcher
// at each step and stopping at the first non-empty result.
type Controller struct {
	matcher  Matcher
	geocoder Geocoder
	ladder   []float64
	radiusKm float64
	widenKm  float64
	logger   *zap.Logger
}

// New creates a controller. geocoder may be nil; the radius step is then
// limited to criteria that carry explicit center coordinates.
func New(m Matcher, geocoder Geocoder, ladder []float64, logger *zap.Logger) *Controller {
	if len(ladder) == 0 {
		ladder = DefaultBudgetLadder
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		matcher:  m,
		geocoder: geocoder,
		ladder:   ladder,
		radiusKm: DefaultRadiusKm,
		widenKm:  WidenedRadiusKm,
		logger:   logger,
	}
}

// WithRadius overrides the default and widened radii for the geographic step.
func (c *Controller) WithRadius(radiusKm, widenKm float64) *Controller {
	if radiusKm > 0 {
		c.radiusKm = radiusKm
	}
	if widenKm > 0 {
		c.widenKm = widenKm
	}
	return c
}

// Relax runs the ladder. It returns the first non-empty result set along
// with the step that produced it, or (nil, nil) when every step is
// exhausted. Relaxation is never silent: a returned step always carries a
// disclosure string, and the ceiling it states is the exact ceiling the
// pass ran under — the matcher adds no headroom of its own.
func (c *Controller) Relax(
	ctx context.Context, crit criteria.Criteria, snapshot []catalog.Item,
) ([]match.Result, *match.RelaxationStep, error) {
	if crit.MaxPrice != nil {
		original := *crit.MaxPrice
		for _, mult := range c.ladder {
			relaxed := crit
			ceiling := original * mult
			relaxed.MaxPrice = &ceiling

			results, _ := c.matcher.Match(relaxed, snapshot)
			if len(results) == 0 {
				continue
			}

			pct := int(math.Round((mult - 1) * 100))
			step := &match.RelaxationStep{
				Field:      match.RelaxBudget,
				Multiplier: mult,
				Disclosure: fmt.Sprintf(
					"Showing options up to ₹%.0f lakhs, %d%% above your budget of ₹%.0f lakhs.",
					ceiling, pct, original,
				),
			}
			return markRelaxed(results), step, nil
		}
	}

	return c.relaxRadius(ctx, crit, snapshot)
}

// relaxRadius is the final ladder step: drop the locality/zone text
// constraints and accept candidates within a radius of the requested
// locality's centroid, ordered nearest first. The budget reverts to the
// caller's original ceiling — widening geography must not silently keep a
// doubled budget. Geocoding failure skips the step without failing the
// pipeline.
func (c *Controller) relaxRadius(
	ctx context.Context, crit criteria.Criteria, snapshot []catalog.Item,
) ([]match.Result, *match.RelaxationStep, error) {
	lat, lon, around, ok := c.resolveCenter(ctx, crit)
	if !ok {
		return nil, nil, nil
	}

	widened := crit
	widened.Zone = nil
	widened.Locality = nil
	candidates, _ := c.matcher.Match(widened, snapshot)
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	radius := c.radiusKm
	if crit.RadiusKm != nil && *crit.RadiusKm > 0 {
		radius = *crit.RadiusKm
	}

	within := withinRadius(candidates, lat, lon, radius)
	if len(within) == 0 && radius < c.widenKm {
		radius = c.widenKm
		within = withinRadius(candidates, lat, lon, radius)
	}
	if len(within) == 0 {
		return nil, nil, nil
	}

	sort.SliceStable(within, func(i, j int) bool {
		return *within[i].DistanceKm < *within[j].DistanceKm
	})

	step := &match.RelaxationStep{
		Field:      match.RelaxRadius,
		RadiusKm:   radius,
		Disclosure: fmt.Sprintf("No exact matches %s; showing options within %.0f km.", around, radius),
	}
	return markRelaxed(within), step, nil
}

// resolveCenter finds the centroid to measure distances from: explicit
// center coordinates win, else the requested locality is geocoded.
func (c *Controller) resolveCenter(ctx context.Context, crit criteria.Criteria) (lat, lon float64, around string, ok bool) {
	if crit.CenterLat != nil && crit.CenterLon != nil {
		return *crit.CenterLat, *crit.CenterLon, "near the requested location", true
	}
	if c.geocoder == nil || crit.Locality == nil || *crit.Locality == "" {
		return 0, 0, "", false
	}

	lat, lon, found, err := c.geocoder.Resolve(ctx, *crit.Locality)
	if err != nil {
		c.logger.Warn("geocoding failed, skipping radius relaxation",
			zap.String("locality", *crit.Locality), zap.Error(err))
		return 0, 0, "", false
	}
	if !found || !geo.ValidCoordinates(lat, lon) {
		return 0, 0, "", false
	}
	return lat, lon, fmt.Sprintf("in %s", *crit.Locality), true
}

func withinRadius(candidates []match.Result, lat, lon, radiusKm float64) []match.Result {
	out := make([]match.Result, 0, len(candidates))
	for _, r := range candidates {
		loc := r.Item.Location
		if !loc.HasCoordinates() {
			continue
		}
		d := geo.HaversineKm(lat, lon, *loc.Lat, *loc.Lon)
		if d > radiusKm {
			continue
		}
		dist := d
		r.DistanceKm = &dist
		out = append(out, r)
	}
	return out
}

func markRelaxed(results []match.Result) []match.Result {
	for i := range results {
		results[i].IsRelaxedMatch = true
	}
	return results
}
