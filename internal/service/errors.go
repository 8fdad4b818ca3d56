// Package service holds the venue-operations core: the live-state
// simulator, the dashboard aggregation, ticket issuing and validation, the
// mock-data seeder and the activity publisher.
package service

import "errors"

// Ticket validation outcomes.  Handlers map each to a status code and
// reason string.
var (
	ErrTicketNotFound   = errors.New("Ticket not found")
	ErrFraudRejected    = errors.New("High fraud risk detected by AI")
	ErrAlreadyValidated = errors.New("Already scanned")
)

// ErrInvalidInput wraps request validation failures.
var ErrInvalidInput = errors.New("invalid input")
