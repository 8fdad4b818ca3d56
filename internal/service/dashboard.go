package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/stadium-ops/internal/model"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/scoring"
)

const (
	feedSize     = 10
	activitySize = 5
	breakdownLen = 4
	feedActor    = "System"
	feedTime     = "15:04"
)

// HealthSource reports the system health figure shown on the dashboard.
type HealthSource interface {
	SystemHealth(ctx context.Context) (int, error)
}

// RandomHealth is the display stub: a uniform integer in [Min, Max].
type RandomHealth struct {
	Min, Max int
	Rand     scoring.RandSource
}

func (h RandomHealth) SystemHealth(context.Context) (int, error) {
	return scoring.IntBetween(h.Rand, h.Min, h.Max), nil
}

// FeedEntry is one row of the activity or alerts feed.
type FeedEntry struct {
	ID     uint64 `json:"id"`
	User   string `json:"user"`
	Action string `json:"action"`
	Detail string `json:"detail"`
	Time   string `json:"time"`
	Level  string `json:"level"`
}

type TicketingStats struct {
	TotalSold   int `json:"total_sold"`
	FraudAlerts int `json:"fraud_alerts"`
}

type CrowdStats struct {
	CriticalZones int `json:"critical_zones"`
	TotalZones    int `json:"total_zones"`
}

type EnergyStats struct {
	TotalUsage float64 `json:"total_usage"`
}

type MerchandiseStats struct {
	TotalRevenue float64                  `json:"total_revenue"`
	TotalItems   int                      `json:"total_items"`
	Breakdown    []*model.MerchandiseItem `json:"breakdown"`
}

// Snapshot is the dashboard payload.
type Snapshot struct {
	ActiveEvents        int              `json:"active_events"`
	OccupancyPercentage int              `json:"occupancy_percentage"`
	SystemHealth        int              `json:"system_health"`
	Ticketing           TicketingStats   `json:"ticketing"`
	Crowd               CrowdStats       `json:"crowd"`
	Energy              EnergyStats      `json:"energy"`
	Merchandise         MerchandiseStats `json:"merchandise"`
	Activity            []FeedEntry      `json:"activity"`
	Alerts              []FeedEntry      `json:"alerts"`
}

// Dashboard ticks the simulator and then rolls up the store.
type Dashboard struct {
	Repos     repository.Repositories
	Simulator *Simulator
	Health    HealthSource
}

// NewDashboard wires a Dashboard.
func NewDashboard(repos repository.Repositories, sim *Simulator, health HealthSource) *Dashboard {
	return &Dashboard{Repos: repos, Simulator: sim, Health: health}
}

// Snapshot advances live state by one tick and returns the rollup.  Any
// failing query fails the whole snapshot.
func (d *Dashboard) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := d.Simulator.Tick(ctx); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	var s Snapshot
	var err error

	if s.ActiveEvents, err = d.Repos.Events.CountByStatus(ctx, model.EventActive); err != nil {
		return nil, fmt.Errorf("count active events: %w", err)
	}

	zt, err := d.Repos.Zones.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("zone totals: %w", err)
	}
	s.OccupancyPercentage = OccupancyPercentage(zt.CurrentCount, zt.Capacity)
	s.Crowd = CrowdStats{CriticalZones: zt.RedZones, TotalZones: zt.Zones}

	if s.SystemHealth, err = d.Health.SystemHealth(ctx); err != nil {
		return nil, fmt.Errorf("system health: %w", err)
	}

	if s.Ticketing.TotalSold, err = d.Repos.Tickets.Count(ctx); err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	if s.Ticketing.FraudAlerts, err = d.Repos.Tickets.CountFraudAbove(ctx, model.FraudThreshold); err != nil {
		return nil, fmt.Errorf("count fraud alerts: %w", err)
	}

	usage, err := d.Repos.Meters.TotalUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("energy usage: %w", err)
	}
	s.Energy.TotalUsage = scoring.Round(usage, 1)

	mt, err := d.Repos.Merchandise.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("merchandise totals: %w", err)
	}
	s.Merchandise.TotalRevenue = scoring.Round(mt.Revenue.Float64(), 2)
	s.Merchandise.TotalItems = mt.StockQuantity
	if s.Merchandise.Breakdown, err = d.Repos.Merchandise.ListFirst(ctx, breakdownLen); err != nil {
		return nil, fmt.Errorf("merchandise breakdown: %w", err)
	}

	logs, err := d.Repos.Logs.Recent(ctx, feedSize)
	if err != nil {
		return nil, fmt.Errorf("recent logs: %w", err)
	}
	s.Activity, s.Alerts = SplitFeed(logs)
	return &s, nil
}

// OccupancyPercentage is floor(100 * count / capacity) with a zero
// capacity treated as 1.
func OccupancyPercentage(count, capacity int) int {
	if capacity == 0 {
		capacity = 1
	}
	return 100 * count / capacity
}

// SplitFeed maps logs (newest first) to feed entries: the first five are
// activity and the next five alerts.  Neither slice is padded.
func SplitFeed(logs []*model.SystemLog) (activity, alerts []FeedEntry) {
	activity, alerts = []FeedEntry{}, []FeedEntry{}
	for i, l := range logs {
		if i >= feedSize {
			break
		}
		e := FeedEntry{
			ID:     l.ID,
			User:   feedActor,
			Action: l.Module,
			Detail: l.Message,
			Time:   l.Timestamp.Format(feedTime),
			Level:  l.Level,
		}
		if i < activitySize {
			activity = append(activity, e)
		} else {
			alerts = append(alerts, e)
		}
	}
	return activity, alerts
}
