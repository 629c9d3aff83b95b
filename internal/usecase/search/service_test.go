package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/domain"
	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
	"github.com/nivaas-cloud/propdex/internal/usecase/matcher"
	"github.com/nivaas-cloud/propdex/internal/usecase/relax"
	"github.com/nivaas-cloud/propdex/internal/usecase/upsell"
)

type mockCatalog struct {
	items []catalog.Item
	err   error
}

func (m *mockCatalog) ListAll(context.Context) ([]catalog.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

type mockSessions struct {
	states map[string]criteria.State
	getErr error
	putErr error
}

func newMockSessions() *mockSessions {
	return &mockSessions{states: make(map[string]criteria.State)}
}

func (m *mockSessions) Get(_ context.Context, id string) (criteria.State, bool, error) {
	if m.getErr != nil {
		return criteria.State{}, false, m.getErr
	}
	st, ok := m.states[id]
	if !ok {
		return criteria.NewState(), false, nil
	}
	return st, true, nil
}

func (m *mockSessions) Put(_ context.Context, id string, st criteria.State) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.states[id] = st
	return nil
}

func (m *mockSessions) Delete(_ context.Context, id string) error {
	delete(m.states, id)
	return nil
}

func buildService(cat *mockCatalog, sess *mockSessions, topK int) *Service {
	m := matcher.New(matcher.DefaultWeights())
	r := relax.New(m, nil, nil, nil)
	u := upsell.New(m)
	return New(cat, sess, m, r, u, topK, zap.NewNop())
}

func project(id, locality, zone string, minPrice float64, units ...catalog.UnitConfiguration) catalog.Item {
	return catalog.Item{
		ID:            id,
		Name:          strings.ToUpper(id),
		Location:      catalog.Location{Locality: locality, Zone: zone},
		PriceMinLakhs: minPrice,
		Units:         units,
	}
}

func unit(bedrooms int, priceLakhs float64) catalog.UnitConfiguration {
	return catalog.UnitConfiguration{Bedrooms: bedrooms, PriceLakhs: priceLakhs}
}

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func TestSearch_BetterValueFlagOnHardMatch(t *testing.T) {
	cat := &mockCatalog{items: []catalog.Item{
		project("alpha", "Whitefield, East Bangalore", "East", 75, unit(2, 75), unit(3, 78)),
	}}
	svc := buildService(cat, newMockSessions(), 0)

	resp, err := svc.Search(context.Background(), Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Criteria: criteria.Criteria{
			Bedrooms: []int{2},
			MaxPrice: fptr(80),
			Locality: sptr("Whitefield"),
		},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	set := resp.ResultSet
	if len(set.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(set.Items))
	}
	got := set.Items[0]
	if got.Item.ID != "alpha" {
		t.Errorf("item id = %q, want alpha", got.Item.ID)
	}
	if !got.IsBetterValue {
		t.Error("expected the 3BHK-within-budget project to be flagged better value")
	}
	if got.IsRelaxedMatch {
		t.Error("exact match should not be flagged relaxed")
	}
	if set.AppliedRelaxation != nil {
		t.Errorf("applied relaxation = %+v, want nil", set.AppliedRelaxation)
	}
	if !containsReason(got.MatchedReasons, match.ReasonBetterValue) {
		t.Errorf("reasons = %v, want %q present", got.MatchedReasons, match.ReasonBetterValue)
	}
	if set.Message != "Found 1 matching property." {
		t.Errorf("message = %q", set.Message)
	}
}

func TestSearch_UpsellAddsSeparateItem(t *testing.T) {
	cat := &mockCatalog{items: []catalog.Item{
		project("alpha", "Whitefield", "East", 75, unit(2, 75)),
		project("charlie", "Whitefield", "East", 78, unit(3, 78)),
	}}
	svc := buildService(cat, newMockSessions(), 0)

	resp, err := svc.Search(context.Background(), Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Criteria: criteria.Criteria{
			Bedrooms: []int{2},
			MaxPrice: fptr(80),
			Locality: sptr("Whitefield"),
		},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	items := resp.ResultSet.Items
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Item.ID != "alpha" || items[0].IsBetterValue {
		t.Errorf("first = %q better_value=%v, want alpha/false", items[0].Item.ID, items[0].IsBetterValue)
	}
	if items[1].Item.ID != "charlie" || !items[1].IsBetterValue {
		t.Errorf("second = %q better_value=%v, want charlie/true", items[1].Item.ID, items[1].IsBetterValue)
	}
}

func TestSearch_EmptyZoneMessage(t *testing.T) {
	cat := &mockCatalog{items: []catalog.Item{
		project("alpha", "Whitefield", "East", 75, unit(2, 75)),
		project("bravo", "Hoskote", "East", 65, unit(2, 65)),
	}}
	svc := buildService(cat, newMockSessions(), 0)

	resp, err := svc.Search(context.Background(), Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Criteria:  criteria.Criteria{Zone: sptr("North Bangalore")},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	set := resp.ResultSet
	if len(set.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(set.Items))
	}
	if set.AppliedRelaxation != nil {
		t.Errorf("applied relaxation = %+v, want nil", set.AppliedRelaxation)
	}
	if !strings.Contains(set.Message, "North Bangalore") {
		t.Errorf("message = %q, want the requested zone named", set.Message)
	}
}

func TestSearch_BudgetRelaxationDisclosed(t *testing.T) {
	cat := &mockCatalog{items: []catalog.Item{
		project("bravo", "Hoskote", "East", 65, unit(2, 65)),
	}}
	svc := buildService(cat, newMockSessions(), 0)

	// 60L against a 65L entry price: the exact pass finds nothing; the
	// 1.1x step lifts the ceiling to 66L and must say so.
	resp, err := svc.Search(context.Background(), Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Criteria:  criteria.Criteria{MaxPrice: fptr(60)},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	set := resp.ResultSet
	if len(set.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(set.Items))
	}
	if set.AppliedRelaxation == nil || set.AppliedRelaxation.Field != match.RelaxBudget {
		t.Fatalf("applied relaxation = %+v, want budget step", set.AppliedRelaxation)
	}
	if set.AppliedRelaxation.Multiplier != 1.1 {
		t.Errorf("multiplier = %v, want 1.1 (a silent pass-0 match would hide the raise)", set.AppliedRelaxation.Multiplier)
	}
	if !set.Items[0].IsRelaxedMatch {
		t.Error("relaxed result not flagged")
	}
	if got := set.Items[0].Item.PriceMinLakhs; got > 60*set.AppliedRelaxation.Multiplier {
		t.Errorf("item price %vL exceeds the disclosed ceiling", got)
	}
	if set.Message != set.AppliedRelaxation.Disclosure {
		t.Errorf("message = %q, want the disclosure %q", set.Message, set.AppliedRelaxation.Disclosure)
	}
	if !strings.Contains(set.Message, "10% above your budget") {
		t.Errorf("message = %q, want the relaxation percentage disclosed", set.Message)
	}
}

func TestSearch_CatalogOutage(t *testing.T) {
	cat := &mockCatalog{err: errors.New("connection refused")}
	svc := buildService(cat, newMockSessions(), 0)

	_, err := svc.Search(context.Background(), Request{SessionID: "s1", Source: criteria.SourceUI})
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestSearch_SessionStatePersistsAcrossTurns(t *testing.T) {
	cat := &mockCatalog{items: []catalog.Item{
		project("alpha", "Whitefield", "East", 75, unit(2, 75)),
	}}
	sess := newMockSessions()
	svc := buildService(cat, sess, 0)
	ctx := context.Background()

	_, err := svc.Search(ctx, Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Criteria: criteria.Criteria{
			Bedrooms: []int{2},
			MaxPrice: fptr(80),
			Locality: sptr("Whitefield"),
		},
	})
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}

	stored := sess.states["s1"]
	if len(stored.ShownItems) != 1 || stored.ShownItems[0] != "alpha" {
		t.Errorf("shown items = %v, want [alpha]", stored.ShownItems)
	}

	// A later chat-extracted locality must not override the panel choice.
	resp, err := svc.Search(ctx, Request{
		SessionID: "s1",
		Source:    criteria.SourceNLP,
		Criteria:  criteria.Criteria{Locality: sptr("Hoskote")},
	})
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if resp.Criteria.Locality == nil || *resp.Criteria.Locality != "Whitefield" {
		t.Errorf("locality after NLP turn = %v, want Whitefield kept", resp.Criteria.Locality)
	}
}

func TestSearch_ExtractedCriteriaMergeAsNLP(t *testing.T) {
	cat := &mockCatalog{items: []catalog.Item{
		project("alpha", "Whitefield", "East", 75, unit(2, 75)),
	}}
	sess := newMockSessions()
	svc := buildService(cat, sess, 0)
	ctx := context.Background()

	// Panel locks the locality first.
	_, err := svc.Search(ctx, Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Criteria:  criteria.Criteria{Locality: sptr("Whitefield")},
	})
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}

	// Chat text carries a budget and a competing locality.
	resp, err := svc.Search(ctx, Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Extracted: &criteria.Criteria{
			Locality: sptr("Hoskote"),
			MaxPrice: fptr(80),
		},
	})
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if resp.Criteria.Locality == nil || *resp.Criteria.Locality != "Whitefield" {
		t.Errorf("locality = %v, want panel choice kept over chat text", resp.Criteria.Locality)
	}
	if resp.Criteria.MaxPrice == nil || *resp.Criteria.MaxPrice != 80 {
		t.Errorf("max price = %v, want 80 adopted from chat text", resp.Criteria.MaxPrice)
	}
}

func TestSearch_SessionStoreFailureDegrades(t *testing.T) {
	cat := &mockCatalog{items: []catalog.Item{
		project("alpha", "Whitefield", "East", 75, unit(2, 75)),
	}}
	sess := newMockSessions()
	sess.getErr = errors.New("store down")
	sess.putErr = errors.New("store down")
	svc := buildService(cat, sess, 0)

	resp, err := svc.Search(context.Background(), Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Criteria:  criteria.Criteria{MaxPrice: fptr(80)},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.ResultSet.Items) != 1 {
		t.Errorf("items = %d, want 1 despite session store outage", len(resp.ResultSet.Items))
	}
}

func TestSearch_TopKTruncation(t *testing.T) {
	cat := &mockCatalog{items: []catalog.Item{
		project("a", "Whitefield", "East", 60, unit(2, 60)),
		project("b", "Whitefield", "East", 70, unit(2, 70)),
		project("c", "Whitefield", "East", 80, unit(2, 80)),
	}}
	svc := buildService(cat, newMockSessions(), 2)

	resp, err := svc.Search(context.Background(), Request{
		SessionID: "s1",
		Source:    criteria.SourceUI,
		Criteria:  criteria.Criteria{MaxPrice: fptr(100)},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.ResultSet.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.ResultSet.Items))
	}
	if resp.ResultSet.Items[0].Item.ID != "a" {
		t.Errorf("first = %q, want cheapest tie-break first", resp.ResultSet.Items[0].Item.ID)
	}
}

func TestClearSession(t *testing.T) {
	sess := newMockSessions()
	sess.states["s1"] = criteria.NewState()
	svc := buildService(&mockCatalog{}, sess, 0)

	if err := svc.ClearSession(context.Background(), "s1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, ok := sess.states["s1"]; ok {
		t.Error("session still present after clear")
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
