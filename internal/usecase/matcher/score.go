package matcher

import (
	"strings"

	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
)

// scoreItem computes the additive soft score. Scoring never rejects.
func (s *Service) scoreItem(c criteria.Criteria, it *catalog.Item) (float64, []string) {
	var score float64
	var reasons []string

	if c.Locality != nil && *c.Locality != "" {
		switch {
		case containsFold(it.Location.PrimarySegment(), *c.Locality):
			score += s.weights.LocalityPrimary
			reasons = append(reasons, match.ReasonLocalityMatch)
		case containsFold(it.Location.Locality, *c.Locality) || containsFold(it.Location.Zone, *c.Locality):
			score += s.weights.LocalitySecondary
			reasons = append(reasons, match.ReasonNearbyLocality)
		default:
			score += s.weights.LocalityMissing
		}
	}

	if c.MaxPrice != nil {
		switch {
		case c.BudgetExact != nil && it.PriceMinLakhs > *c.BudgetExact && it.PriceMinLakhs <= *c.MaxPrice:
			// Above the approximate figure but inside the derived band:
			// a weaker fit than landing under the figure itself.
			score += s.weights.BudgetTolerance
			reasons = append(reasons, match.ReasonNearBudget)
		case it.PriceMinLakhs <= *c.MaxPrice:
			score += s.weights.BudgetWithin
			reasons = append(reasons, match.ReasonWithinBudget)
		}
	}

	if c.HasBedrooms() {
		for _, u := range it.Units {
			if c.WantsBedroom(u.Bedrooms) {
				score += s.weights.BedroomExact
				reasons = append(reasons, match.ReasonBedroomsMatch)
				break
			}
		}
	}

	if c.Zone != nil && *c.Zone != "" {
		// Zone is a hard filter, so reaching scoring implies a match.
		score += s.weights.ZoneMatch
		reasons = append(reasons, match.ReasonZoneMatch)
	}

	return score, reasons
}

// Score exposes soft scoring for callers assembling supplementary results
// (the upsell detector) so merged result sets stay comparably ranked.
func (s *Service) Score(c criteria.Criteria, it *catalog.Item) (float64, []string) {
	return s.scoreItem(c, it)
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func containsAnyFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
