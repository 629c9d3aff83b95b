// Package upsell finds better-value additions: a configuration one
// bedroom larger than requested that still fits the effective budget.
package upsell

import (
	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
)

// Scorer computes a comparable soft score for a supplementary result so
// merged result sets stay consistently ranked.
type Scorer interface {
	Score(c criteria.Criteria, it *catalog.Item) (float64, []string)
	PassesLocationFilters(c criteria.Criteria, it *catalog.Item) bool
}

// Detector scans for upsell candidates. Pure and stateless.
type Detector struct {
	scorer Scorer
}

// New creates a detector.
func New(scorer Scorer) *Detector {
	return &Detector{scorer: scorer}
}

// Detect scans every candidate that passes the zone/locality hard filters
// (not just already-matched ones) for a unit with N+1 bedrooms priced at
// or below ceilingLakhs, where N iterates over the requested bedroom set.
// It flags exactly one increment: a 2BHK request may surface a 3BHK, never
// a 4BHK. Candidates priced above the ceiling are never flagged.
func (d *Detector) Detect(
	c criteria.Criteria, snapshot []catalog.Item, ceilingLakhs float64,
) []match.Result {
	if !c.HasBedrooms() || ceilingLakhs <= 0 {
		return nil
	}

	var out []match.Result
	seen := make(map[string]struct{})

	for i := range snapshot {
		it := &snapshot[i]
		if _, dup := seen[it.ID]; dup {
			continue
		}
		if !d.scorer.PassesLocationFilters(c, it) {
			continue
		}
		if !hasUpsellUnit(c, it, ceilingLakhs) {
			continue
		}

		score, reasons := d.scorer.Score(c, it)
		out = append(out, match.Result{
			Item:           *it,
			Score:          score,
			IsBetterValue:  true,
			MatchedReasons: append(reasons, match.ReasonBetterValue),
		})
		seen[it.ID] = struct{}{}
	}

	return out
}

func hasUpsellUnit(c criteria.Criteria, it *catalog.Item, ceiling float64) bool {
	for _, n := range c.Bedrooms {
		if u, ok := it.UnitFor(n + 1); ok && u.PriceLakhs <= ceiling {
			return true
		}
	}
	return false
}
