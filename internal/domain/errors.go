package domain

import "errors"

var (
	// ErrDataUnavailable signals a catalog or geocoding provider failure.
	// Fatal for the current request and retryable by the caller.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidCriteria signals an inconsistent filter combination.
	// Recovered locally by clamping, never surfaced as a request failure.
	ErrInvalidCriteria = errors.New("invalid criteria")
	// ErrGeocodingFailure signals that a locality could not be resolved.
	// Degrades the pipeline by skipping radius relaxation only.
	ErrGeocodingFailure = errors.New("geocoding failure")
	// ErrSessionNotFound signals a missing or expired session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrExtractionUnavailable signals that no criteria extractor is configured.
	ErrExtractionUnavailable = errors.New("criteria extraction unavailable")
)
