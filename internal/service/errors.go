package service

import "errors"

// Service-level error taxonomy. Handlers are the terminal boundary and
// map these onto HTTP statuses.
var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the caller supplied a malformed id or payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAINotConfigured means the generation credential is absent. AI
	// operations fail with this before any network call is attempted.
	ErrAINotConfigured = errors.New("AI service is not configured")

	// ErrUpstream means the AI service call failed or returned
	// unusable content.
	ErrUpstream = errors.New("AI service request failed")
)
