// Package search is the matching pipeline orchestrator: session merge,
// exact pass, relaxation, upsell detection, assembly and ranking.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/domain"
	"github.com/nivaas-cloud/propdex/internal/domain/catalog"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
	"github.com/nivaas-cloud/propdex/internal/metrics"
	"github.com/nivaas-cloud/propdex/internal/usecase/matcher"
)

// DefaultTopK is the number of results returned per turn.
const DefaultTopK = 5

// Request is one conversational search turn. Extracted carries criteria
// pulled out of free chat text; it always merges as an NLP update, before
// the structured payload, so panel choices keep their precedence.
type Request struct {
	SessionID   string
	Criteria    criteria.Criteria
	Source      criteria.Source
	Extracted   *criteria.Criteria
	ClearFields []criteria.Field
}

// Response carries the ranked results plus the effective merged criteria,
// so the caller can render the active filter state back to the user.
type Response struct {
	SessionID   string                `json:"session_id"`
	ResultSet   match.RankedResultSet `json:"result_set"`
	Criteria    criteria.Criteria     `json:"criteria"`
	Corrections []criteria.Correction `json:"corrections,omitempty"`
}

// Service runs the pipeline. Stateless itself; all per-conversation state
// lives in the session store.
type Service struct {
	catalog  CatalogProvider
	sessions SessionStore
	matcher  Matcher
	relaxer  Relaxer
	upsell   UpsellDetector
	topK     int
	logger   *zap.Logger
}

// New creates the pipeline service. A non-positive topK falls back to the
// default.
func New(
	catalog CatalogProvider,
	sessions SessionStore,
	m Matcher,
	relaxer Relaxer,
	upsell UpsellDetector,
	topK int,
	logger *zap.Logger,
) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:  catalog,
		sessions: sessions,
		matcher:  m,
		relaxer:  relaxer,
		upsell:   upsell,
		topK:     topK,
		logger:   logger,
	}
}

// Search executes one turn: merge the incoming criteria into session
// state, run the exact pass, fall through the relaxation ladder when it
// comes back empty, then fold in better-value additions. A catalog outage
// is the only pipeline error; session store trouble degrades to a
// stateless turn.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	outcome := "matched"
	defer func() {
		metrics.SearchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	state := s.loadState(ctx, req.SessionID)
	if len(req.ClearFields) > 0 {
		state.ClearFields(req.ClearFields...)
	}

	var corrections []criteria.Correction
	if req.Extracted != nil {
		var cs []criteria.Correction
		state, cs = criteria.Merge(state, *req.Extracted, criteria.SourceNLP)
		corrections = append(corrections, cs...)
	}
	var cs []criteria.Correction
	state, cs = criteria.Merge(state, req.Criteria, req.Source)
	corrections = append(corrections, cs...)
	for _, corr := range corrections {
		s.logger.Info("criteria corrected",
			zap.String("session_id", req.SessionID),
			zap.String("field", string(corr.Field)),
			zap.String("detail", corr.Detail))
	}
	crit := state.Criteria

	snapshot, err := s.catalog.ListAll(ctx)
	if err != nil {
		outcome = "error"
		return Response{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}

	results, rej := s.matcher.Match(crit, snapshot)

	var step *match.RelaxationStep
	if len(results) == 0 {
		results, step, err = s.relaxer.Relax(ctx, crit, snapshot)
		if err != nil {
			outcome = "error"
			return Response{}, err
		}
		if step != nil {
			outcome = "relaxed"
			metrics.RelaxationStepsTotal.WithLabelValues(string(step.Field)).Inc()
		}
	}

	results = s.addUpsells(crit, snapshot, step, results)
	sortResults(results, step)
	if len(results) > s.topK {
		results = results[:s.topK]
	}

	set := match.RankedResultSet{
		Items:             results,
		AppliedRelaxation: step,
		Message:           buildMessage(crit, results, step, rej),
	}
	if len(results) == 0 {
		outcome = "empty"
	}

	s.saveState(ctx, req.SessionID, state, results)

	return Response{
		SessionID:   req.SessionID,
		ResultSet:   set,
		Criteria:    crit,
		Corrections: corrections,
	}, nil
}

// Session returns the stored criteria state for a conversation.
func (s *Service) Session(ctx context.Context, sessionID string) (criteria.State, bool, error) {
	return s.sessions.Get(ctx, sessionID)
}

// ClearSession drops the stored criteria state for a conversation.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *Service) loadState(ctx context.Context, sessionID string) criteria.State {
	state, _, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("session load failed, continuing stateless",
			zap.String("session_id", sessionID), zap.Error(err))
		return criteria.NewState()
	}
	return state
}

func (s *Service) saveState(ctx context.Context, sessionID string, state criteria.State, results []match.Result) {
	shown := make([]string, 0, len(results))
	for _, r := range results {
		shown = append(shown, r.Item.ID)
	}
	state.ShownItems = shown
	if err := s.sessions.Put(ctx, sessionID, state); err != nil {
		s.logger.Warn("session save failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

// addUpsells folds better-value candidates into the result set. The
// ceiling is the user's stated maximum, scaled by the ladder multiplier
// when the budget was relaxed: a disclosed doubled budget also doubles
// what counts as "within budget" for the larger configuration.
func (s *Service) addUpsells(
	crit criteria.Criteria, snapshot []catalog.Item, step *match.RelaxationStep, results []match.Result,
) []match.Result {
	if s.upsell == nil || crit.MaxPrice == nil {
		return results
	}

	ceiling := *crit.MaxPrice
	if step != nil && step.Field == match.RelaxBudget {
		ceiling *= step.Multiplier
	}

	candidates := s.upsell.Detect(crit, snapshot, ceiling)
	if len(candidates) == 0 {
		return results
	}

	index := make(map[string]int, len(results))
	for i, r := range results {
		index[r.Item.ID] = i
	}

	added := 0
	for _, cand := range candidates {
		if i, dup := index[cand.Item.ID]; dup {
			// Already a hard match: keep its placement, flag the value.
			if !results[i].IsBetterValue {
				results[i].IsBetterValue = true
				results[i].MatchedReasons = append(results[i].MatchedReasons, match.ReasonBetterValue)
			}
			continue
		}
		if step != nil {
			cand.IsRelaxedMatch = true
		}
		results = append(results, cand)
		index[cand.Item.ID] = len(results) - 1
		added++
	}
	if added > 0 {
		metrics.UpsellResultsTotal.Add(float64(added))
	}
	return results
}

// sortResults orders the assembled set. A radius-relaxed pass keeps its
// nearest-first ordering; everything else ranks by score, then by
// ascending entry price, then by id for determinism.
func sortResults(results []match.Result, step *match.RelaxationStep) {
	if step != nil && step.Field == match.RelaxRadius {
		sort.SliceStable(results, func(i, j int) bool {
			di, dj := results[i].DistanceKm, results[j].DistanceKm
			switch {
			case di != nil && dj != nil:
				return *di < *dj
			case di != nil:
				return true
			case dj != nil:
				return false
			}
			return results[i].Score > results[j].Score
		})
		return
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
}

// buildMessage produces the caller-facing summary line. Empty result sets
// always get a constraint-specific explanation built from the hard-filter
// tallies of the exact pass.
func buildMessage(crit criteria.Criteria, results []match.Result, step *match.RelaxationStep, rej matcher.Rejections) string {
	if len(results) == 0 {
		return emptyMessage(crit, rej)
	}
	if step != nil {
		return step.Disclosure
	}
	if len(results) == 1 {
		return "Found 1 matching property."
	}
	return fmt.Sprintf("Found %d matching properties.", len(results))
}

func emptyMessage(crit criteria.Criteria, rej matcher.Rejections) string {
	if rej.Considered == 0 {
		return "No properties are available right now. Please try again later."
	}

	// Attribute the miss to the filter that rejected the most candidates.
	top, n := "", 0
	for _, f := range []struct {
		name  string
		count int
	}{
		{"zone", rej.Zone},
		{"budget", rej.Budget},
		{"bedroom_budget", rej.BedroomBudget},
		{"status", rej.Status},
		{"developer", rej.Developer},
		{"property_type", rej.PropertyType},
		{"possession", rej.Possession},
		{"area", rej.Area},
	} {
		if f.count > n {
			top, n = f.name, f.count
		}
	}

	switch top {
	case "zone":
		where := "the requested area"
		if crit.Zone != nil && *crit.Zone != "" {
			where = *crit.Zone
		}
		return fmt.Sprintf("No properties found in %s. Try widening the area or removing the zone filter.", where)
	case "budget":
		if crit.MaxPrice != nil {
			return fmt.Sprintf("No properties within your budget of ₹%.0f lakhs. Try raising the budget.", *crit.MaxPrice)
		}
		return "No properties within your budget. Try raising the budget."
	case "bedroom_budget":
		return "No options with the requested bedrooms fit your budget. Try a different configuration or a higher budget."
	case "possession":
		return "No properties hand over by your requested possession date. Try a later date."
	case "area":
		return "No units in the requested size range. Try widening the size range."
	case "status", "developer", "property_type":
		return "No properties match the requested project filters. Try removing some of them."
	}
	return "No properties match your criteria. Try relaxing some filters."
}
