package model

import "time"

// Crowd zone statuses.
const (
	ZoneGreen  = "green"
	ZoneYellow = "yellow"
	ZoneRed    = "red"
)

// CrowdZone is a physical area whose occupancy is tracked.  CurrentCount
// always stays within [0, Capacity].
type CrowdZone struct {
	ID           uint64    `json:"id"`                                               // crowd_zones.id
	Name         string    `json:"name" validate:"required"`                         // crowd_zones.name
	Capacity     int       `json:"capacity" validate:"gt=0"`                         // crowd_zones.capacity
	CurrentCount int       `json:"current_count" validate:"gte=0,ltefield=Capacity"` // crowd_zones.current_count
	Status       string    `json:"status" validate:"oneof=green yellow red"`         // crowd_zones.status
	LastUpdated  time.Time `json:"last_updated"`                                     // crowd_zones.last_updated
}
