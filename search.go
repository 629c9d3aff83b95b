package propdex

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	"github.com/nivaas-cloud/propdex/internal/domain/match"
	searchuc "github.com/nivaas-cloud/propdex/internal/usecase/search"
)

// Source identifies where a criteria update came from.
type Source string

const (
	// SourceUI marks values set explicitly through a filter panel.
	// UI values take precedence over later NLP updates to the same field.
	SourceUI Source = "ui"
	// SourceNLP marks values extracted from free chat text.
	SourceNLP Source = "nlp"
)

// Criteria is a structured property-search request. All prices are in
// lakhs. Nil pointers and empty slices mean "not specified".
type Criteria struct {
	Bedrooms []int

	MinPrice    *float64
	MaxPrice    *float64
	BudgetExact *float64

	City     *string
	Locality *string
	Zone     *string

	PossessionYear    *int
	PossessionQuarter *int

	AreaSqftMin *float64
	AreaSqftMax *float64

	Statuses      []string
	Developer     *string
	PropertyTypes []string
}

// SearchRequest is one conversational search turn. Query is free chat
// text, parsed with the built-in regex extractor; Criteria is the
// structured payload. Either or both may be set.
type SearchRequest struct {
	SessionID   string
	Source      Source
	Query       string
	Criteria    *Criteria
	ClearFields []string
}

// MatchResult is a single ranked catalog item.
type MatchResult struct {
	ID             string
	Name           string
	Developer      string
	Status         string
	PropertyType   string
	Locality       string
	Zone           string
	PriceMinLakhs  float64
	PriceMaxLakhs  float64
	Score          float64
	IsBetterValue  bool
	IsRelaxedMatch bool
	DistanceKm     *float64
	MatchedReasons []string
}

// Relaxation records the constraint loosening applied to produce the
// result set. Disclosure is the caller-facing explanation.
type Relaxation struct {
	Field      string
	Multiplier float64
	RadiusKm   float64
	Disclosure string
}

// SearchResponse is the outcome of one search turn.
type SearchResponse struct {
	SessionID         string
	Items             []MatchResult
	AppliedRelaxation *Relaxation
	Message           string
}

// Search executes one conversational search turn. An empty SessionID
// starts a fresh session; the returned SessionID carries the
// conversation forward.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	source := criteria.SourceUI
	if req.Source == SourceNLP {
		source = criteria.SourceNLP
	}

	ucReq := searchuc.Request{
		SessionID:   sessionID,
		Source:      source,
		ClearFields: toInternalFields(req.ClearFields),
	}
	if req.Criteria != nil {
		ucReq.Criteria = toInternalCriteria(*req.Criteria)
	}
	if req.Query != "" {
		extracted, err := c.parser(ctx).Extract(ctx, req.Query)
		if err == nil {
			ucReq.Extracted = &extracted
		}
	}

	resp, err := c.searchSvc.Search(ctx, ucReq)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	return fromInternalResponse(resp), nil
}

func toInternalCriteria(c Criteria) criteria.Criteria {
	return criteria.Criteria{
		Bedrooms:          c.Bedrooms,
		MinPrice:          c.MinPrice,
		MaxPrice:          c.MaxPrice,
		BudgetExact:       c.BudgetExact,
		City:              c.City,
		Locality:          c.Locality,
		Zone:              c.Zone,
		PossessionYear:    c.PossessionYear,
		PossessionQuarter: c.PossessionQuarter,
		AreaSqftMin:       c.AreaSqftMin,
		AreaSqftMax:       c.AreaSqftMax,
		Statuses:          c.Statuses,
		Developer:         c.Developer,
		PropertyTypes:     c.PropertyTypes,
	}
}

func toInternalFields(ss []string) []criteria.Field {
	if len(ss) == 0 {
		return nil
	}
	out := make([]criteria.Field, 0, len(ss))
	for _, s := range ss {
		out = append(out, criteria.Field(s))
	}
	return out
}

func fromInternalResponse(r searchuc.Response) SearchResponse {
	resp := SearchResponse{
		SessionID: r.SessionID,
		Items:     make([]MatchResult, 0, len(r.ResultSet.Items)),
		Message:   r.ResultSet.Message,
	}
	for _, item := range r.ResultSet.Items {
		resp.Items = append(resp.Items, fromInternalResult(item))
	}
	if step := r.ResultSet.AppliedRelaxation; step != nil {
		resp.AppliedRelaxation = &Relaxation{
			Field:      string(step.Field),
			Multiplier: step.Multiplier,
			RadiusKm:   step.RadiusKm,
			Disclosure: step.Disclosure,
		}
	}
	return resp
}

func fromInternalResult(r match.Result) MatchResult {
	return MatchResult{
		ID:             r.Item.ID,
		Name:           r.Item.Name,
		Developer:      r.Item.Developer,
		Status:         r.Item.Status,
		PropertyType:   r.Item.PropertyType,
		Locality:       r.Item.Location.Locality,
		Zone:           r.Item.Location.Zone,
		PriceMinLakhs:  r.Item.PriceMinLakhs,
		PriceMaxLakhs:  r.Item.PriceMaxLakhs,
		Score:          r.Score,
		IsBetterValue:  r.IsBetterValue,
		IsRelaxedMatch: r.IsRelaxedMatch,
		DistanceKm:     r.DistanceKm,
		MatchedReasons: r.MatchedReasons,
	}
}
