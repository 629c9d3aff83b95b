package matcher

import (
	"reflect"
	"testing"

	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
)

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }

// eastSideCatalog mirrors the two-project fixture used across the engine
// tests: P1 is a premium East-zone project whose cheapest 2BHK sits at
// 90L, P2 a budget project with a 2BHK at 65L.
func eastSideCatalog() []catalog.Item {
	return []catalog.Item{
		{
			ID: "P1", Name: "Brigade Horizon", Developer: "Brigade", Status: "under_construction",
			Location:      catalog.Location{Locality: "Whitefield, East Bangalore", Zone: "East"},
			PriceMinLakhs: 90, PriceMaxLakhs: 140,
			Units: []catalog.UnitConfiguration{
				{Bedrooms: 2, PriceLakhs: 90, SizeMinSqft: 1200, SizeMaxSqft: 1350},
				{Bedrooms: 3, PriceLakhs: 140, SizeMinSqft: 1650, SizeMaxSqft: 1800},
			},
		},
		{
			ID: "P2", Name: "Sowparnika Sunrise", Developer: "Sowparnika", Status: "ready_to_move",
			Location:      catalog.Location{Locality: "Hoskote, East Bangalore", Zone: "East"},
			PriceMinLakhs: 65, PriceMaxLakhs: 65,
			Units: []catalog.UnitConfiguration{
				{Bedrooms: 2, PriceLakhs: 65, SizeMinSqft: 1050, SizeMaxSqft: 1100},
			},
		},
	}
}

func TestMatch_BudgetOnlyIncludesAffordable(t *testing.T) {
	// Pass-0 inclusiveness: a candidate whose minimum price fits the
	// ceiling must appear when nothing else is constrained.
	svc := New(DefaultWeights())
	c := criteria.Criteria{MaxPrice: fp(70)}

	results, _ := svc.Match(c, eastSideCatalog())

	if len(results) != 1 || results[0].Item.ID != "P2" {
		t.Fatalf("results = %+v, want exactly P2", ids(results))
	}
}

func TestMatch_OverBudgetUnitRejected(t *testing.T) {
	// Scenario A: P1's configuration list mentions 2BHK, but its 2BHK is
	// priced over the ceiling, so the building is rejected outright.
	svc := New(DefaultWeights())
	c := criteria.Criteria{Bedrooms: []int{2}, MaxPrice: fp(80), Zone: sp("East")}

	results, rej := svc.Match(c, eastSideCatalog())

	if len(results) != 1 || results[0].Item.ID != "P2" {
		t.Fatalf("results = %v, want [P2]", ids(results))
	}
	if rej.BedroomBudget+rej.Budget != 1 {
		t.Errorf("rejections = %+v, want P1 counted against budget", rej)
	}
}

func TestMatch_BudgetCeilingIsStrict(t *testing.T) {
	// A 60L ceiling excludes the 65L project outright. No silent
	// headroom: the only way a pricier candidate reaches a result set
	// is through a disclosed relaxation step.
	svc := New(DefaultWeights())
	c := criteria.Criteria{Bedrooms: []int{2}, MaxPrice: fp(60), Zone: sp("East")}

	results, rej := svc.Match(c, eastSideCatalog())

	if len(results) != 0 {
		t.Fatalf("results = %v, want none at a 60L ceiling", ids(results))
	}
	if rej.Budget+rej.BedroomBudget != 2 {
		t.Errorf("rejections = %+v, want both items counted against budget", rej)
	}
}

func TestMatch_ApproximateBudgetScoringTiers(t *testing.T) {
	// An approximate budget carries its derived band: landing under the
	// figure itself outranks landing in the band above it.
	svc := New(DefaultWeights())
	snapshot := eastSideCatalog()

	exact := 70.0
	band := criteria.Criteria{BudgetExact: &exact, MinPrice: fp(63), MaxPrice: fp(77)}

	under, underReasons := svc.Score(band, &snapshot[1]) // P2 at 65L, below the figure
	snapshot[1].PriceMinLakhs = 75
	within, withinReasons := svc.Score(band, &snapshot[1]) // now inside the band only

	if under <= within {
		t.Errorf("scores under=%v band=%v, want under-the-figure strictly higher", under, within)
	}
	if !containsReason(underReasons, match.ReasonWithinBudget) {
		t.Errorf("reasons = %v, want %q", underReasons, match.ReasonWithinBudget)
	}
	if !containsReason(withinReasons, match.ReasonNearBudget) {
		t.Errorf("reasons = %v, want %q", withinReasons, match.ReasonNearBudget)
	}
}

func TestMatch_ZoneHardFilter(t *testing.T) {
	svc := New(DefaultWeights())
	c := criteria.Criteria{Zone: sp("West")}

	results, rej := svc.Match(c, eastSideCatalog())

	if len(results) != 0 {
		t.Fatalf("results = %v, want none outside East zone", ids(results))
	}
	if rej.Zone != 2 {
		t.Errorf("rej.Zone = %d, want 2", rej.Zone)
	}
}

func TestMatch_ZoneMatchesLocationString(t *testing.T) {
	// The zone filter also accepts a substring hit in the address.
	svc := New(DefaultWeights())
	c := criteria.Criteria{Zone: sp("east bangalore")}

	results, _ := svc.Match(c, eastSideCatalog())
	if len(results) != 2 {
		t.Fatalf("results = %v, want both items", ids(results))
	}
}

func TestMatch_LocalityScoringTiers(t *testing.T) {
	svc := New(DefaultWeights())
	snapshot := eastSideCatalog()

	primary, _ := svc.Score(criteria.Criteria{Locality: sp("Whitefield")}, &snapshot[0])
	secondary, _ := svc.Score(criteria.Criteria{Locality: sp("East Bangalore")}, &snapshot[0])
	absent, _ := svc.Score(criteria.Criteria{Locality: sp("Jayanagar")}, &snapshot[0])

	if !(primary > secondary && secondary > absent) {
		t.Errorf("scores primary=%v secondary=%v absent=%v, want strictly decreasing", primary, secondary, absent)
	}
	if absent >= 0 {
		t.Errorf("absent locality score = %v, want negative", absent)
	}
}

func TestMatch_RankingAndTieBreak(t *testing.T) {
	svc := New(DefaultWeights())
	snapshot := []catalog.Item{
		{ID: "B", PriceMinLakhs: 80, Location: catalog.Location{Locality: "Hebbal", Zone: "North"}},
		{ID: "A", PriceMinLakhs: 70, Location: catalog.Location{Locality: "Hebbal", Zone: "North"}},
	}
	c := criteria.Criteria{MaxPrice: fp(100)}

	results, _ := svc.Match(c, snapshot)

	// Equal scores: the cheaper option wins.
	if results[0].Item.ID != "A" || results[1].Item.ID != "B" {
		t.Errorf("order = %v, want [A B] (ascending price on ties)", ids(results))
	}
}

func TestMatch_Deterministic(t *testing.T) {
	svc := New(DefaultWeights())
	c := criteria.Criteria{Bedrooms: []int{2}, MaxPrice: fp(150), Zone: sp("East"), Locality: sp("Whitefield")}

	first, _ := svc.Match(c, eastSideCatalog())
	for i := 0; i < 10; i++ {
		again, _ := svc.Match(c, eastSideCatalog())
		if !reflect.DeepEqual(ids(first), ids(again)) {
			t.Fatalf("run %d produced different order: %v vs %v", i, ids(first), ids(again))
		}
	}
}

func TestMatch_StatusAndDeveloperFilters(t *testing.T) {
	svc := New(DefaultWeights())

	results, _ := svc.Match(criteria.Criteria{Statuses: []string{"ready_to_move"}}, eastSideCatalog())
	if len(results) != 1 || results[0].Item.ID != "P2" {
		t.Errorf("status filter results = %v, want [P2]", ids(results))
	}

	results, _ = svc.Match(criteria.Criteria{Developer: sp("brigade")}, eastSideCatalog())
	if len(results) != 1 || results[0].Item.ID != "P1" {
		t.Errorf("developer filter results = %v, want [P1]", ids(results))
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}

func ids(results []match.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Item.ID
	}
	return out
}
