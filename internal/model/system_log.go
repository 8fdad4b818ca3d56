package model

import "time"

// Log levels accepted on system log rows.
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// SystemLog is an append-only activity record.  Timestamp is set when the
// row is created and never modified.
type SystemLog struct {
	ID        uint64    `json:"id"`                                        // system_logs.id
	Timestamp time.Time `json:"timestamp"`                                 // system_logs.created_at
	Module    string    `json:"module" validate:"required"`                // system_logs.module
	Level     string    `json:"level" validate:"oneof=INFO WARNING ERROR"` // system_logs.level
	Message   string    `json:"message" validate:"required"`               // system_logs.message
}

// ValidLogLevel reports whether s is INFO, WARNING or ERROR.
func ValidLogLevel(s string) bool {
	switch s {
	case LevelInfo, LevelWarning, LevelError:
		return true
	}
	return false
}
