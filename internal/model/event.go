package model

import "time"

// Event statuses.  Transitions are driven by operators; nothing in the
// service moves an event between states on a clock.
const (
	EventUpcoming = "upcoming"
	EventActive   = "active"
	EventFinished = "finished"
)

// Event represents a scheduled fixture at the venue.  It corresponds to a
// row in the `events` table and owns zero or more tickets; deleting an
// event removes its tickets.
//
// Fields:
//  ID                 – primary key identifier.
//  Name               – display name of the fixture.
//  Description        – free text, may be empty.
//  StartTime          – when the gates open / match starts.
//  EndTime            – scheduled end.
//  Status             – upcoming, active or finished.
//  ExpectedAttendance – planning figure, never negative.
type Event struct {
	ID                 uint64    `json:"id"`                                               // events.id
	Name               string    `json:"name" validate:"required"`                         // events.name
	Description        string    `json:"description"`                                      // events.description
	StartTime          time.Time `json:"start_time"`                                       // events.start_time
	EndTime            time.Time `json:"end_time"`                                         // events.end_time
	Status             string    `json:"status" validate:"oneof=upcoming active finished"` // events.status
	ExpectedAttendance int       `json:"expected_attendance" validate:"gte=0"`             // events.expected_attendance
}
