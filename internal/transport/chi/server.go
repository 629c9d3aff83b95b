// Package chi is the HTTP API surface of propdex.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/domain"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
	healthuc "github.com/nivaas-cloud/propdex/internal/usecase/health"
	searchuc "github.com/nivaas-cloud/propdex/internal/usecase/search"
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeSessionNotFound  = "session_not_found"
	codeDataUnavailable  = "data_unavailable"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Extractor turns free chat text into structured criteria.
type Extractor interface {
	Extract(ctx context.Context, text string) (criteria.Criteria, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	extractor     Extractor // may be nil; fallback is then used directly
	fallback      Extractor
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. extractor may be nil; fallback
// must not be.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	extractor Extractor,
	fallback Extractor,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		health:    health,
		extractor: extractor,
		fallback:  fallback,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, codeSessionNotFound),
		sentinelHandler(domain.ErrDataUnavailable, http.StatusServiceUnavailable, codeDataUnavailable),
		sentinelHandler(domain.ErrInvalidCriteria, http.StatusBadRequest, codeValidationFailed),
	}
	return s
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/api/v1/search", s.Search)
	r.Get("/api/v1/sessions/{sessionID}", s.GetSession)
	r.Delete("/api/v1/sessions/{sessionID}", s.DeleteSession)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type searchRequest struct {
	SessionID   string             `json:"session_id,omitempty"`
	Source      string             `json:"source,omitempty"` // "ui" (default) or "nlp"
	Query       string             `json:"query,omitempty"`
	Criteria    *criteria.Criteria `json:"criteria,omitempty"`
	ClearFields []string           `json:"clear_fields,omitempty"`
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Criteria == nil && req.Query == "" && len(req.ClearFields) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "criteria, query or clear_fields is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	source := criteria.SourceUI
	if req.Source == string(criteria.SourceNLP) {
		source = criteria.SourceNLP
	}

	ucReq := searchuc.Request{
		SessionID:   sessionID,
		Source:      source,
		ClearFields: clearFieldsFromStrings(req.ClearFields),
	}
	if req.Criteria != nil {
		ucReq.Criteria = *req.Criteria
	}
	if req.Query != "" {
		extracted := s.extract(r.Context(), req.Query)
		ucReq.Extracted = &extracted
	}

	resp, err := s.search.Search(r.Context(), ucReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// extract resolves chat text to criteria: the LLM extractor first, the
// regex parser when it is absent or failing. Extraction trouble never
// fails the request.
func (s *Server) extract(ctx context.Context, query string) criteria.Criteria {
	if s.extractor != nil {
		c, err := s.extractor.Extract(ctx, query)
		if err == nil {
			return c
		}
		s.logger.Warn("extraction failed, using regex fallback", zap.Error(err))
	}
	if s.fallback == nil {
		return criteria.Criteria{}
	}
	c, err := s.fallback.Extract(ctx, query)
	if err != nil {
		s.logger.Warn("regex extraction failed", zap.Error(err))
		return criteria.Criteria{}
	}
	return c
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	State     criteria.State `json:"state"`
}

// GetSession handles GET /api/v1/sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, found, err := s.search.Session(r.Context(), sessionID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, codeSessionNotFound, domain.ErrSessionNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sessionID, State: state})
}

// DeleteSession handles DELETE /api/v1/sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.search.ClearSession(r.Context(), sessionID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func clearFieldsFromStrings(ss []string) []criteria.Field {
	if len(ss) == 0 {
		return nil
	}
	out := make([]criteria.Field, 0, len(ss))
	for _, s := range ss {
		out = append(out, criteria.Field(s))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrDataUnavailable,
		domain.ErrInvalidCriteria,
		domain.ErrGeocodingFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
