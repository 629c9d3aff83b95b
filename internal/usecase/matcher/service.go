// Package matcher applies hard constraints and soft weighted scoring to
// an immutable catalog snapshot.
package matcher

import (
	"sort"

	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
)

// Weights are the soft-scoring constants. The absolute values are
// empirically chosen and tunable via config; only their relative ordering
// (exact locality > zone > budget fit > bedroom fit) is load-bearing.
type Weights struct {
	LocalityPrimary   float64
	LocalitySecondary float64
	LocalityMissing   float64
	BudgetWithin      float64
	BudgetTolerance   float64
	BedroomExact      float64
	ZoneMatch         float64
}

// DefaultWeights returns the baseline scoring constants.
func DefaultWeights() Weights {
	return Weights{
		LocalityPrimary:   100,
		LocalitySecondary: 50,
		LocalityMissing:   -10,
		BudgetWithin:      20,
		BudgetTolerance:   10,
		BedroomExact:      30,
		ZoneMatch:         10,
	}
}

// Rejections tallies hard-filter outcomes for a pass. The search service
// turns them into the no-match explanation the caller is owed.
type Rejections struct {
	Considered    int
	Zone          int
	Budget        int
	BedroomBudget int
	Status        int
	Developer     int
	PropertyType  int
	Possession    int
	Area          int
}

// Service is the matcher. Pure and stateless: safe for concurrent use
// across requests.
type Service struct {
	weights Weights
}

// New creates a matcher.
func New(weights Weights) *Service {
	return &Service{weights: weights}
}

// Match applies hard filters then soft scoring over the snapshot.
// Output is ordered: score descending, ties broken by ascending minimum
// listed price, then by id. Identical inputs produce identical output.
func (s *Service) Match(c criteria.Criteria, snapshot []catalog.Item) ([]match.Result, Rejections) {
	var rej Rejections
	results := make([]match.Result, 0, len(snapshot))

	for i := range snapshot {
		it := &snapshot[i]
		rej.Considered++
		if !s.passesHardFilters(c, it, &rej) {
			continue
		}

		score, reasons := s.scoreItem(c, it)
		results = append(results, match.Result{
			Item:           *it,
			Score:          score,
			MatchedReasons: reasons,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Item.PriceMinLakhs != results[j].Item.PriceMinLakhs {
			return results[i].Item.PriceMinLakhs < results[j].Item.PriceMinLakhs
		}
		return results[i].Item.ID < results[j].Item.ID
	})

	return results, rej
}

// PassesLocationFilters reports whether the item survives the zone hard
// filter alone. The upsell detector scans this wider pool.
func (s *Service) PassesLocationFilters(c criteria.Criteria, it *catalog.Item) bool {
	if c.Zone == nil || *c.Zone == "" {
		return true
	}
	return containsFold(it.Location.Zone, *c.Zone) || containsFold(it.Location.Locality, *c.Zone)
}

func (s *Service) passesHardFilters(c criteria.Criteria, it *catalog.Item, rej *Rejections) bool {
	if !s.PassesLocationFilters(c, it) {
		rej.Zone++
		return false
	}

	if c.MaxPrice != nil {
		// The ceiling is exact. Any headroom above the stated budget
		// reaches a pass only through the relaxation ladder, which
		// raises MaxPrice and discloses the raise.
		ceiling := *c.MaxPrice
		if it.PriceMinLakhs > ceiling {
			rej.Budget++
			return false
		}
		// A building whose configuration string merely mentions the
		// bedroom count does not count: the matching unit itself must
		// fit under the ceiling.
		if c.HasBedrooms() && !hasUnitWithin(it, c, ceiling) {
			rej.BedroomBudget++
			return false
		}
	}

	if len(c.Statuses) > 0 && !containsAnyFold(c.Statuses, it.Status) {
		rej.Status++
		return false
	}
	if c.Developer != nil && !containsFold(it.Developer, *c.Developer) {
		rej.Developer++
		return false
	}
	if len(c.PropertyTypes) > 0 && !containsAnyFold(c.PropertyTypes, it.PropertyType) {
		rej.PropertyType++
		return false
	}
	if c.PossessionYear != nil && !possessionWithin(it.Possession, *c.PossessionYear, c.PossessionQuarter) {
		rej.Possession++
		return false
	}
	if (c.AreaSqftMin != nil || c.AreaSqftMax != nil) && !hasUnitInAreaRange(it, c.AreaSqftMin, c.AreaSqftMax) {
		rej.Area++
		return false
	}

	return true
}

func hasUnitWithin(it *catalog.Item, c criteria.Criteria, ceiling float64) bool {
	for _, u := range it.Units {
		if c.WantsBedroom(u.Bedrooms) && u.PriceLakhs <= ceiling {
			return true
		}
	}
	return false
}

// possessionWithin accepts items handed over no later than the requested
// year/quarter.
func possessionWithin(p catalog.Possession, year int, quarter *int) bool {
	if p.Year == 0 {
		return true // unknown possession is not grounds for rejection
	}
	if p.Year != year {
		return p.Year < year
	}
	if quarter == nil || p.Quarter == 0 {
		return true
	}
	return p.Quarter <= *quarter
}

// hasUnitInAreaRange accepts items with at least one unit overlapping the
// requested size range. Units without size data never disqualify an item.
func hasUnitInAreaRange(it *catalog.Item, minSqft, maxSqft *float64) bool {
	sized := false
	for _, u := range it.Units {
		if u.SizeMaxSqft <= 0 {
			continue
		}
		sized = true
		if minSqft != nil && u.SizeMaxSqft < *minSqft {
			continue
		}
		if maxSqft != nil && u.SizeMinSqft > *maxSqft {
			continue
		}
		return true
	}
	return !sized
}
