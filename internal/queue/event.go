// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into system log rows.
package queue

import (
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

// ActivityEvent is published whenever something operators should see in
// the activity feed happens (a gate scan, a fraud block, a mock seed).
// Consumers persist it as a SystemLog row without querying the API.
type ActivityEvent struct {
	Module     string    `json:"module"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ErrInvalidEvent is returned for payloads that cannot become a log row.
var ErrInvalidEvent = errors.New("invalid activity event")

// ToSystemLog validates the event and converts it.  A missing level
// defaults to INFO and a zero OccurredAt to now.
func (e ActivityEvent) ToSystemLog() (*model.SystemLog, error) {
	module := strings.TrimSpace(e.Module)
	msg := strings.TrimSpace(e.Message)
	if module == "" || msg == "" {
		return nil, ErrInvalidEvent
	}
	level := strings.ToUpper(strings.TrimSpace(e.Level))
	if level == "" {
		level = model.LevelInfo
	}
	if !model.ValidLogLevel(level) {
		return nil, ErrInvalidEvent
	}
	at := e.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	return &model.SystemLog{
		Timestamp: at.UTC(),
		Module:    module,
		Level:     level,
		Message:   msg,
	}, nil
}
