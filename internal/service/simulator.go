package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/scoring"
)

// Jitter ranges applied per tick.
const (
	zoneJitter  = 5
	meterJitter = 2.0
	redRatio    = 0.9
)

// Simulator advances crowd zones and energy meters by one tick.  It is
// driven by dashboard reads; there is no background loop.
//
// Each tick is a plain read-modify-write per row.  Two concurrent ticks
// can read the same count and the later write wins.
type Simulator struct {
	Zones  repository.CrowdZoneRepository
	Meters repository.EnergyMeterRepository
	Rand   scoring.RandSource
}

// NewSimulator wires a Simulator.
func NewSimulator(zones repository.CrowdZoneRepository, meters repository.EnergyMeterRepository, r scoring.RandSource) *Simulator {
	return &Simulator{Zones: zones, Meters: meters, Rand: r}
}

// Tick nudges every zone count by a delta in [-5,5], clamped to
// [0,capacity], and every meter reading by a delta in [-2,2], floored at
// 50 kW and rounded to one decimal.  A zone above 90% turns red, anything
// else green; yellow is only ever set by seed data or direct edits.
// Meter status is left alone.
func (s *Simulator) Tick(ctx context.Context) error {
	zones, err := s.Zones.List(ctx)
	if err != nil {
		return fmt.Errorf("list zones: %w", err)
	}
	for _, z := range zones {
		StepZone(z, scoring.IntBetween(s.Rand, -zoneJitter, zoneJitter))
		if err := s.Zones.Update(ctx, z); err != nil {
			return fmt.Errorf("update zone %d: %w", z.ID, err)
		}
	}

	meters, err := s.Meters.List(ctx)
	if err != nil {
		return fmt.Errorf("list meters: %w", err)
	}
	for _, m := range meters {
		StepMeter(m, scoring.FloatBetween(s.Rand, -meterJitter, meterJitter))
		if err := s.Meters.Update(ctx, m); err != nil {
			return fmt.Errorf("update meter %d: %w", m.ID, err)
		}
	}
	return nil
}

// StepZone applies delta to z in place.
func StepZone(z *model.CrowdZone, delta int) {
	n := z.CurrentCount + delta
	if n > z.Capacity {
		n = z.Capacity
	}
	if n < 0 {
		n = 0
	}
	z.CurrentCount = n
	z.Status = model.ZoneGreen
	if z.Capacity > 0 && float64(n)/float64(z.Capacity) > redRatio {
		z.Status = model.ZoneRed
	}
	z.LastUpdated = time.Now().UTC()
}

// StepMeter applies delta to m in place.
func StepMeter(m *model.EnergyMeter, delta float64) {
	v := m.CurrentUsageKW + delta
	if v < model.MinMeterUsageKW {
		v = model.MinMeterUsageKW
	}
	m.CurrentUsageKW = scoring.Round(v, 1)
	m.LastReadingTime = time.Now().UTC()
}
