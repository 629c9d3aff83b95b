// Package match holds the engine's output contract: scored results,
// relaxation metadata, and the ranked result set.
package match

import "github.com/nivaas-cloud/propdex/internal/domain/catalog"

// Match reason strings surfaced to the response-formatting layer.
const (
	ReasonLocalityMatch  = "Locality match"
	ReasonNearbyLocality = "Near requested locality"
	ReasonZoneMatch      = "Zone match"
	ReasonWithinBudget   = "Within budget"
	ReasonNearBudget     = "Slightly above budget"
	ReasonBedroomsMatch  = "Bedrooms match"
	ReasonBetterValue    = "Larger configuration within budget"
)

// Result is a single scored catalog item.
type Result struct {
	Item           catalog.Item `json:"item"`
	Score          float64      `json:"score"`
	IsBetterValue  bool         `json:"is_better_value"`
	IsRelaxedMatch bool         `json:"is_relaxed_match"`
	DistanceKm     *float64     `json:"distance_km,omitempty"`
	MatchedReasons []string     `json:"matched_reasons,omitempty"`
}

// RelaxationField names the constraint a relaxation step loosened.
type RelaxationField string

const (
	// RelaxBudget widens the budget ceiling by a ladder multiplier.
	RelaxBudget RelaxationField = "budget"
	// RelaxRadius widens the geographic search radius around the
	// requested locality.
	RelaxRadius RelaxationField = "radius"
)

// RelaxationStep records one applied relaxation. It belongs to the result
// set, not to individual items: relaxation is a property of the whole
// query pass, and it is never silent — Disclosure is always set.
type RelaxationStep struct {
	Field      RelaxationField `json:"field"`
	Multiplier float64         `json:"multiplier,omitempty"`
	RadiusKm   float64         `json:"radius_km,omitempty"`
	Disclosure string          `json:"disclosure"`
}

// RankedResultSet is the engine's caller-visible output. An empty Items
// list is always accompanied by a constraint-specific Message.
type RankedResultSet struct {
	Items             []Result        `json:"items"`
	AppliedRelaxation *RelaxationStep `json:"applied_relaxation,omitempty"`
	Message           string          `json:"message"`
}
