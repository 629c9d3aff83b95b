// Package criteria holds the search-request data contract and its
// turn-by-turn merge logic.
package criteria

import "time"

// Source identifies where a criteria update came from. UI-sourced values
// take precedence over NLP-sourced values for the same field.
type Source string

const (
	// SourceUI marks values set explicitly through a filter panel.
	SourceUI Source = "ui"
	// SourceNLP marks values extracted from free chat text.
	SourceNLP Source = "nlp"
)

// Field names criteria fields for source tracking and explicit clears.
type Field string

const (
	FieldBedrooms      Field = "bedrooms"
	FieldMinPrice      Field = "min_price"
	FieldMaxPrice      Field = "max_price"
	FieldBudgetExact   Field = "budget_exact"
	FieldCity          Field = "city"
	FieldLocality      Field = "locality"
	FieldZone          Field = "zone"
	FieldPossession    Field = "possession"
	FieldArea          Field = "area"
	FieldStatuses      Field = "statuses"
	FieldDeveloper     Field = "developer"
	FieldPropertyTypes Field = "property_types"
	FieldCenter        Field = "center"
)

// BudgetBandPct is the half-width of the price band derived from an
// approximate budget (±10%).
const BudgetBandPct = 0.10

// Criteria is a structured property-search request. All prices are in lakhs.
// Nil pointers and empty slices mean "not specified".
type Criteria struct {
	Bedrooms []int `json:"bedrooms,omitempty"`

	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	BudgetExact *float64 `json:"budget_exact,omitempty"`

	City     *string `json:"city,omitempty"`
	Locality *string `json:"locality,omitempty"`
	Zone     *string `json:"zone,omitempty"`

	PossessionYear    *int `json:"possession_year,omitempty"`
	PossessionQuarter *int `json:"possession_quarter,omitempty"`

	AreaSqftMin *float64 `json:"area_sqft_min,omitempty"`
	AreaSqftMax *float64 `json:"area_sqft_max,omitempty"`

	Statuses      []string `json:"statuses,omitempty"`
	Developer     *string  `json:"developer,omitempty"`
	PropertyTypes []string `json:"property_types,omitempty"`

	CenterLat *float64 `json:"center_lat,omitempty"`
	CenterLon *float64 `json:"center_lon,omitempty"`
	RadiusKm  *float64 `json:"radius_km,omitempty"`
}

// HasBudget reports whether a budget ceiling is set.
func (c *Criteria) HasBudget() bool { return c.MaxPrice != nil }

// HasBedrooms reports whether any bedroom count is requested.
func (c *Criteria) HasBedrooms() bool { return len(c.Bedrooms) > 0 }

// WantsBedroom reports whether n is in the requested bedroom set.
func (c *Criteria) WantsBedroom(n int) bool {
	for _, b := range c.Bedrooms {
		if b == n {
			return true
		}
	}
	return false
}

// State is the per-session criteria state: the last-merged criteria, the
// source of each set field, and the ids of the items last shown. One writer
// per session; concurrent turns are serialized by the caller.
type State struct {
	Criteria   Criteria         `json:"criteria"`
	Sources    map[Field]Source `json:"sources,omitempty"`
	ShownItems []string         `json:"shown_items,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewState returns an empty session state.
func NewState() State {
	return State{Sources: make(map[Field]Source)}
}

// ClearFields removes the given fields from the state. Used for explicit
// UI clears, which also lift the UI-precedence lock on those fields.
func (s *State) ClearFields(fields ...Field) {
	for _, f := range fields {
		switch f {
		case FieldBedrooms:
			s.Criteria.Bedrooms = nil
		case FieldMinPrice:
			s.Criteria.MinPrice = nil
		case FieldMaxPrice:
			s.Criteria.MaxPrice = nil
		case FieldBudgetExact:
			s.Criteria.BudgetExact = nil
			s.Criteria.MinPrice = nil
			s.Criteria.MaxPrice = nil
		case FieldCity:
			s.Criteria.City = nil
		case FieldLocality:
			s.Criteria.Locality = nil
		case FieldZone:
			s.Criteria.Zone = nil
		case FieldPossession:
			s.Criteria.PossessionYear = nil
			s.Criteria.PossessionQuarter = nil
		case FieldArea:
			s.Criteria.AreaSqftMin = nil
			s.Criteria.AreaSqftMax = nil
		case FieldStatuses:
			s.Criteria.Statuses = nil
		case FieldDeveloper:
			s.Criteria.Developer = nil
		case FieldPropertyTypes:
			s.Criteria.PropertyTypes = nil
		case FieldCenter:
			s.Criteria.CenterLat = nil
			s.Criteria.CenterLon = nil
			s.Criteria.RadiusKm = nil
		}
		delete(s.Sources, f)
	}
}
