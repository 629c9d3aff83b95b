// Package catalog holds the immutable catalog item model. Items are
// produced by the ingestion boundary and only ever read by the engine.
package catalog

import "strings"

// UnitConfiguration is one sellable configuration of a project, parsed
// once at catalog-load time from the embedded configuration string.
type UnitConfiguration struct {
	Bedrooms    int     `json:"bedrooms"`
	PriceLakhs  float64 `json:"price_lakhs"`
	SizeMinSqft float64 `json:"size_min_sqft"`
	SizeMaxSqft float64 `json:"size_max_sqft"`
}

// Possession is the quoted handover window of a project.
type Possession struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// Location places a project. Locality may be a comma-separated address
// string whose first segment is the primary locality.
type Location struct {
	Locality string   `json:"locality"`
	Zone     string   `json:"zone"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}

// PrimarySegment returns the first comma-separated segment of the
// locality string, trimmed.
func (l Location) PrimarySegment() string {
	s := l.Locality
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// HasCoordinates reports whether the item carries a resolvable centroid.
func (l Location) HasCoordinates() bool { return l.Lat != nil && l.Lon != nil }

// Item is a single real-estate project. Prices are in lakhs.
type Item struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Developer     string              `json:"developer"`
	Status        string              `json:"status"`
	PropertyType  string              `json:"property_type"`
	Possession    Possession          `json:"possession"`
	Location      Location            `json:"location"`
	PriceMinLakhs float64             `json:"price_min_lakhs"`
	PriceMaxLakhs float64             `json:"price_max_lakhs"`
	Units         []UnitConfiguration `json:"units"`
}

// UnitFor returns the cheapest configuration with the given bedroom count.
func (it *Item) UnitFor(bedrooms int) (UnitConfiguration, bool) {
	var best UnitConfiguration
	found := false
	for _, u := range it.Units {
		if u.Bedrooms != bedrooms {
			continue
		}
		if !found || u.PriceLakhs < best.PriceLakhs {
			best = u
			found = true
		}
	}
	return best, found
}
