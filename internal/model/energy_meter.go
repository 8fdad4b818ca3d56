package model

import "time"

// Energy meter statuses.  The status is written by operators; readings do
// not derive it.
const (
	MeterOptimal  = "optimal"
	MeterHigh     = "high"
	MeterCritical = "critical"
)

// MinMeterUsageKW is the floor the simulator keeps every meter reading at.
const MinMeterUsageKW = 50.0

// EnergyMeter is a metered circuit somewhere in the venue.
type EnergyMeter struct {
	ID              uint64    `json:"id"`                                            // energy_meters.id
	Name            string    `json:"name" validate:"required"`                      // energy_meters.name
	Location        string    `json:"location" validate:"required"`                  // energy_meters.location
	CurrentUsageKW  float64   `json:"current_usage_kw" validate:"gte=0"`             // energy_meters.current_usage_kw
	Status          string    `json:"status" validate:"oneof=optimal high critical"` // energy_meters.status
	LastReadingTime time.Time `json:"last_reading_time"`                             // energy_meters.last_reading_time
}
