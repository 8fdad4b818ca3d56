package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/model"
	"github.com/iliyamo/stadium-ops/internal/queue"
	"github.com/iliyamo/stadium-ops/internal/repository"
)

// SeedStatus is the message returned by the mock data endpoint.
const SeedStatus = "Mock data generated successfully"

// Seeder fills empty tables with demo rows.  Each table is only touched
// while it is empty, so calling Seed again is a no-op.  Concurrent Seed
// calls on one Seeder run one at a time; separate processes sharing a
// database are not coordinated.
type Seeder struct {
	Repos     repository.Repositories
	Tickets   *TicketService
	Publisher ActivityPublisher
	Log       *zap.Logger
	Now       func() time.Time

	mu sync.Mutex
}

// NewSeeder wires a Seeder with the wall clock.
func NewSeeder(repos repository.Repositories, tickets *TicketService, pub ActivityPublisher, log *zap.Logger) *Seeder {
	return &Seeder{Repos: repos, Tickets: tickets, Publisher: pub, Log: log, Now: time.Now}
}

// Seed inserts the fixtures for every empty table.
func (s *Seeder) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := []struct {
		name  string
		count func(context.Context) (int, error)
		fill  func(context.Context) error
	}{
		{"crowd zones", s.Repos.Zones.Count, s.seedZones},
		{"energy meters", s.Repos.Meters.Count, s.seedMeters},
		{"events", s.Repos.Events.Count, s.seedEvent},
		{"merchandise", s.Repos.Merchandise.Count, s.seedMerchandise},
		{"system logs", s.Repos.Logs.Count, s.seedLogs},
	}
	seeded := 0
	for _, st := range steps {
		n, err := st.count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", st.name, err)
		}
		if n > 0 {
			continue
		}
		if err := st.fill(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", st.name, err)
		}
		seeded++
	}
	s.Log.Info("mock data seeded", zap.Int("tables", seeded))
	if seeded > 0 {
		publishBestEffort(ctx, s.Publisher, s.Log, queue.ActivityEvent{
			Module:     "Seeder",
			Level:      model.LevelInfo,
			Message:    fmt.Sprintf("Mock data generated for %d tables", seeded),
			OccurredAt: s.Now().UTC(),
		})
	}
	return nil
}

func (s *Seeder) seedZones(ctx context.Context) error {
	zones := []model.CrowdZone{
		{Name: "North Gate A", Capacity: 500, CurrentCount: 120, Status: model.ZoneGreen},
		{Name: "South Stand", Capacity: 2000, CurrentCount: 1800, Status: model.ZoneRed},
		{Name: "VIP Lounge", Capacity: 100, CurrentCount: 80, Status: model.ZoneYellow},
	}
	for i := range zones {
		if err := s.Repos.Zones.Create(ctx, &zones[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedMeters(ctx context.Context) error {
	meters := []model.EnergyMeter{
		{Name: "Main Lighting", Location: "Roof", CurrentUsageKW: 450.5, Status: model.MeterOptimal},
		{Name: "HVAC System", Location: "Basement", CurrentUsageKW: 320.2, Status: model.MeterHigh},
	}
	for i := range meters {
		if err := s.Repos.Meters.Create(ctx, &meters[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedEvent(ctx context.Context) error {
	now := s.Now().UTC()
	e := &model.Event{
		Name:               "Championship Final",
		StartTime:          now,
		EndTime:            now.Add(3 * time.Hour),
		Status:             model.EventActive,
		ExpectedAttendance: 50000,
	}
	if err := s.Repos.Events.Create(ctx, e); err != nil {
		return err
	}
	for i := 0; i < 10; i++ {
		t := &model.Ticket{
			EventID:      e.ID,
			CustomerName: fmt.Sprintf("Fan %d", i),
			TicketCode:   fmt.Sprintf("TICKET-%d", i),
			Price:        5000,
		}
		if err := s.Tickets.Issue(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedMerchandise(ctx context.Context) error {
	items := []model.MerchandiseItem{
		{Name: "Team Jersey", Category: "Apparel", Price: 8999, StockQuantity: 500, SoldCount: 120},
		{Name: "Cap", Category: "Apparel", Price: 2999, StockQuantity: 200, SoldCount: 45},
	}
	for i := range items {
		if err := s.Repos.Merchandise.Create(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLogs(ctx context.Context) error {
	return s.Repos.Logs.Create(ctx, &model.SystemLog{
		Timestamp: s.Now().UTC(),
		Module:    "Seeder",
		Level:     model.LevelInfo,
		Message:   "Mock data generated",
	})
}
