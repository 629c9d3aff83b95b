package extract

import (
	"context"
	"math"
	"testing"
)

func TestExtract_BedroomsAndBudgetUnder(t *testing.T) {
	p := NewParser(nil)
	c, err := p.Extract(context.Background(), "Looking for a 2BHK under 80 lakhs")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(c.Bedrooms) != 1 || c.Bedrooms[0] != 2 {
		t.Errorf("bedrooms = %v, want [2]", c.Bedrooms)
	}
	if c.MaxPrice == nil || *c.MaxPrice != 80 {
		t.Errorf("max price = %v, want 80", c.MaxPrice)
	}
	if c.BudgetExact != nil {
		t.Errorf("budget exact = %v, want nil for an explicit ceiling", c.BudgetExact)
	}
}

func TestExtract_CroreConversion(t *testing.T) {
	p := NewParser(nil)
	c, err := p.Extract(context.Background(), "3 bhk under 1.2 cr please")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if c.MaxPrice == nil || math.Abs(*c.MaxPrice-120) > 1e-9 {
		t.Errorf("max price = %v, want 120 lakhs", c.MaxPrice)
	}
}

func TestExtract_AroundBudgetExact(t *testing.T) {
	p := NewParser(nil)
	c, err := p.Extract(context.Background(), "something around 90 lakhs")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if c.BudgetExact == nil || *c.BudgetExact != 90 {
		t.Errorf("budget exact = %v, want 90", c.BudgetExact)
	}
	if c.MaxPrice != nil {
		t.Errorf("max price = %v, want nil; the band is derived at merge time", c.MaxPrice)
	}
}

func TestExtract_BetweenRange(t *testing.T) {
	p := NewParser(nil)
	c, err := p.Extract(context.Background(), "between 60 lakhs and 1 crore")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if c.MinPrice == nil || *c.MinPrice != 60 {
		t.Errorf("min price = %v, want 60", c.MinPrice)
	}
	if c.MaxPrice == nil || *c.MaxPrice != 100 {
		t.Errorf("max price = %v, want 100", c.MaxPrice)
	}
}

func TestExtract_ZoneAndLocality(t *testing.T) {
	p := NewParser([]string{"Whitefield", "Hoskote"})
	c, err := p.Extract(context.Background(), "2bhk in whitefield, east bangalore")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if c.Zone == nil || *c.Zone != "East" {
		t.Errorf("zone = %v, want East", c.Zone)
	}
	if c.Locality == nil || *c.Locality != "Whitefield" {
		t.Errorf("locality = %v, want Whitefield", c.Locality)
	}
}

func TestExtract_PossessionYearAndQuarter(t *testing.T) {
	p := NewParser(nil)
	c, err := p.Extract(context.Background(), "ready by Q2 2027")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if c.PossessionYear == nil || *c.PossessionYear != 2027 {
		t.Errorf("possession year = %v, want 2027", c.PossessionYear)
	}
	if c.PossessionQuarter == nil || *c.PossessionQuarter != 2 {
		t.Errorf("possession quarter = %v, want 2", c.PossessionQuarter)
	}
}

func TestExtract_UnreadableTextYieldsEmpty(t *testing.T) {
	p := NewParser([]string{"Whitefield"})
	c, err := p.Extract(context.Background(), "hello there, how are you?")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(c.Bedrooms) != 0 || c.MaxPrice != nil || c.BudgetExact != nil ||
		c.Zone != nil || c.Locality != nil {
		t.Errorf("expected empty criteria, got %+v", c)
	}
}

func TestExtract_MultipleBedroomCounts(t *testing.T) {
	p := NewParser(nil)
	c, err := p.Extract(context.Background(), "2 or 3 BHK, 2bhk preferred")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// "3 BHK" and both "2bhk" mentions collapse to the unique set.
	want := map[int]bool{2: false, 3: false}
	for _, b := range c.Bedrooms {
		if _, ok := want[b]; !ok {
			t.Fatalf("unexpected bedroom count %d in %v", b, c.Bedrooms)
		}
		want[b] = true
	}
	for b, seen := range want {
		if !seen {
			t.Errorf("bedroom count %d missing from %v", b, c.Bedrooms)
		}
	}
}
