package triage

import "errors"

var (
	// ErrSessionNotFound is returned when no triage session exists for an id.
	ErrSessionNotFound = errors.New("triage: session not found")

	// ErrAgentUnavailable is returned when the conversational agent could not
	// be reached or produced no usable text.
	ErrAgentUnavailable = errors.New("triage: agent unavailable")
)
