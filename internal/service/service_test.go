package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/model"
	"github.com/iliyamo/stadium-ops/internal/queue"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/scoring"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type fixedScorer float64

func (f fixedScorer) ScoreFraud(string) float64 { return float64(f) }

type fixedHealth int

func (h fixedHealth) SystemHealth(context.Context) (int, error) { return int(h), nil }

func newEvent(t *testing.T, repos repository.Repositories) *model.Event {
	t.Helper()
	e := &model.Event{Name: "Derby", Status: model.EventActive}
	require.NoError(t, repos.Events.Create(context.Background(), e))
	return e
}

func TestSimulatorKeepsZonesInBounds(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	zones := []*model.CrowdZone{
		{Name: "Empty", Capacity: 100, CurrentCount: 0, Status: model.ZoneGreen},
		{Name: "Full", Capacity: 100, CurrentCount: 100, Status: model.ZoneRed},
		{Name: "Tiny", Capacity: 3, CurrentCount: 2, Status: model.ZoneGreen},
	}
	for _, z := range zones {
		require.NoError(t, repos.Zones.Create(ctx, z))
	}
	require.NoError(t, repos.Meters.Create(ctx, &model.EnergyMeter{Name: "Low", CurrentUsageKW: 50.5}))

	sim := NewSimulator(repos.Zones, repos.Meters, scoring.NewSeededSource(7))
	for i := 0; i < 200; i++ {
		require.NoError(t, sim.Tick(ctx))
		list, err := repos.Zones.List(ctx)
		require.NoError(t, err)
		for _, z := range list {
			assert.GreaterOrEqual(t, z.CurrentCount, 0, z.Name)
			assert.LessOrEqual(t, z.CurrentCount, z.Capacity, z.Name)
			assert.Contains(t, []string{model.ZoneGreen, model.ZoneRed}, z.Status)
		}
		meters, err := repos.Meters.List(ctx)
		require.NoError(t, err)
		for _, m := range meters {
			assert.GreaterOrEqual(t, m.CurrentUsageKW, model.MinMeterUsageKW)
		}
	}
}

func TestStepZoneExtremes(t *testing.T) {
	z := &model.CrowdZone{Capacity: 500, CurrentCount: 2}
	StepZone(z, -5)
	assert.Equal(t, 0, z.CurrentCount)
	assert.Equal(t, model.ZoneGreen, z.Status)

	z = &model.CrowdZone{Capacity: 500, CurrentCount: 498, Status: model.ZoneYellow}
	StepZone(z, 5)
	assert.Equal(t, 500, z.CurrentCount)
	assert.Equal(t, model.ZoneRed, z.Status)

	// exactly 90% is not red
	z = &model.CrowdZone{Capacity: 100, CurrentCount: 90, Status: model.ZoneYellow}
	StepZone(z, 0)
	assert.Equal(t, model.ZoneGreen, z.Status)
	assert.False(t, z.LastUpdated.IsZero())
}

func TestStepMeterFloorAndRounding(t *testing.T) {
	m := &model.EnergyMeter{CurrentUsageKW: 51.0, Status: model.MeterCritical}
	StepMeter(m, -2)
	assert.Equal(t, 50.0, m.CurrentUsageKW)
	assert.Equal(t, model.MeterCritical, m.Status)

	m = &model.EnergyMeter{CurrentUsageKW: 450.5}
	StepMeter(m, 1.26)
	assert.InDelta(t, 451.8, m.CurrentUsageKW, 1e-9)
}

func TestOccupancyPercentage(t *testing.T) {
	assert.Equal(t, 0, OccupancyPercentage(0, 0))
	assert.Equal(t, 76, OccupancyPercentage(2000, 2600))
	assert.Equal(t, 100, OccupancyPercentage(10, 10))
	assert.Equal(t, 29, OccupancyPercentage(29, 100))
}

func TestSplitFeed(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 7, 0, 0, time.UTC)
	var logs []*model.SystemLog
	for i := 0; i < 7; i++ {
		logs = append(logs, &model.SystemLog{ID: uint64(i + 1), Module: "Gate", Message: "m", Level: model.LevelInfo, Timestamp: base})
	}
	activity, alerts := SplitFeed(logs)
	assert.Len(t, activity, 5)
	assert.Len(t, alerts, 2)
	assert.Equal(t, FeedEntry{ID: 1, User: "System", Action: "Gate", Detail: "m", Time: "09:07", Level: model.LevelInfo}, activity[0])

	activity, alerts = SplitFeed(logs[:3])
	assert.Len(t, activity, 3)
	assert.Empty(t, alerts)
}

func TestDashboardSnapshot(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	e := newEvent(t, repos)
	require.NoError(t, repos.Events.Create(ctx, &model.Event{Name: "Later", Status: model.EventUpcoming}))
	require.NoError(t, repos.Tickets.Create(ctx, &model.Ticket{EventID: e.ID, TicketCode: "OK-1", FraudScore: 0.1}))
	require.NoError(t, repos.Tickets.Create(ctx, &model.Ticket{EventID: e.ID, TicketCode: "BAD-1", FraudScore: 0.95}))
	require.NoError(t, repos.Tickets.Create(ctx, &model.Ticket{EventID: e.ID, TicketCode: "EDGE", FraudScore: 0.8}))
	require.NoError(t, repos.Zones.Create(ctx, &model.CrowdZone{Name: "A", Capacity: 100, CurrentCount: 50}))
	require.NoError(t, repos.Meters.Create(ctx, &model.EnergyMeter{Name: "M", CurrentUsageKW: 100}))
	for _, m := range []model.MerchandiseItem{
		{Name: "Jersey", Price: 8999, SoldCount: 120, StockQuantity: 500},
		{Name: "Cap", Price: 2999, SoldCount: 45, StockQuantity: 200},
		{Name: "Pin", Price: 33, SoldCount: 3},
		{Name: "Scarf", Price: 1999},
		{Name: "Mug", Price: 1250, SoldCount: 1},
	} {
		m := m
		require.NoError(t, repos.Merchandise.Create(ctx, &m))
	}

	// zero deltas keep the snapshot exact
	rnd := &scoring.SequenceSource{Ints: []int{5}, Floats: []float64{0.5}}
	d := NewDashboard(repos, NewSimulator(repos.Zones, repos.Meters, rnd), fixedHealth(97))

	snap, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ActiveEvents)
	assert.Equal(t, 50, snap.OccupancyPercentage)
	assert.Equal(t, 97, snap.SystemHealth)
	assert.Equal(t, TicketingStats{TotalSold: 3, FraudAlerts: 1}, snap.Ticketing)
	assert.Equal(t, CrowdStats{CriticalZones: 0, TotalZones: 1}, snap.Crowd)
	assert.Equal(t, 100.0, snap.Energy.TotalUsage)
	// 1079880 + 134955 + 99 + 1250 cents
	assert.Equal(t, 12161.84, snap.Merchandise.TotalRevenue)
	assert.Equal(t, 700, snap.Merchandise.TotalItems)
	require.Len(t, snap.Merchandise.Breakdown, 4)
	assert.Equal(t, "Scarf", snap.Merchandise.Breakdown[3].Name)
	assert.Empty(t, snap.Activity)
	assert.Empty(t, snap.Alerts)
}

func TestDashboardEmptyStore(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	d := NewDashboard(repos, NewSimulator(repos.Zones, repos.Meters, scoring.NewSeededSource(1)),
		RandomHealth{Min: 95, Max: 100, Rand: scoring.NewSeededSource(1)})

	snap, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.OccupancyPercentage)
	assert.GreaterOrEqual(t, snap.SystemHealth, 95)
	assert.LessOrEqual(t, snap.SystemHealth, 100)
	assert.NotNil(t, snap.Merchandise.Breakdown)
}

func newTicketService(repos repository.Repositories, score float64) (*TicketService, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewTicketService(repos.Tickets, fixedScorer(score), pub, zap.NewNop()), pub
}

func TestIssueAssignsImmutableFraudScore(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	e := newEvent(t, repos)
	svc, _ := newTicketService(repos, 0.42)

	tk := &model.Ticket{EventID: e.ID, TicketCode: "TICKET-1", FraudScore: 0.01, IsValidated: true}
	require.NoError(t, svc.Issue(ctx, tk))
	assert.Equal(t, 0.42, tk.FraudScore)
	assert.False(t, tk.IsValidated)

	tk.FraudScore = 0
	tk.SeatNumber = "B12"
	require.NoError(t, repos.Tickets.Update(ctx, tk))

	for i := 0; i < 3; i++ {
		got, err := repos.Tickets.GetByID(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.42, got.FraudScore)
		assert.Equal(t, "B12", got.SeatNumber)
	}

	assert.ErrorIs(t, svc.Issue(ctx, &model.Ticket{EventID: e.ID}), ErrInvalidInput)
}

func TestValidateFraudTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	e := newEvent(t, repos)
	svc, pub := newTicketService(repos, 0.95)

	require.NoError(t, svc.Issue(ctx, &model.Ticket{EventID: e.ID, TicketCode: "TICKET-X"}))

	for i := 0; i < 2; i++ {
		_, err := svc.Validate(ctx, "TICKET-X")
		assert.ErrorIs(t, err, ErrFraudRejected)
	}
	got, err := repos.Tickets.GetByCode(ctx, "TICKET-X")
	require.NoError(t, err)
	assert.False(t, got.IsValidated)
	assert.Nil(t, got.EntryTime)
	require.NotEmpty(t, pub.events)
	assert.Equal(t, model.LevelError, pub.events[0].Level)
}

func TestValidateTwice(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	e := newEvent(t, repos)
	svc, _ := newTicketService(repos, 0.1)
	at := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return at }

	require.NoError(t, svc.Issue(ctx, &model.Ticket{EventID: e.ID, TicketCode: "TICKET-OK"}))

	tk, err := svc.Validate(ctx, "TICKET-OK")
	require.NoError(t, err)
	assert.True(t, tk.IsValidated)
	require.NotNil(t, tk.EntryTime)
	assert.True(t, at.Equal(*tk.EntryTime))

	_, err = svc.Validate(ctx, "TICKET-OK")
	assert.ErrorIs(t, err, ErrAlreadyValidated)
}

func TestValidateUnknownCode(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	svc, _ := newTicketService(repos, 0.1)
	_, err := svc.Validate(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestValidateConcurrentScansAdmitOnce(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	e := newEvent(t, repos)
	svc, _ := newTicketService(repos, 0.1)
	require.NoError(t, svc.Issue(ctx, &model.Ticket{EventID: e.ID, TicketCode: "RUSH-1"}))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dupe int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Validate(ctx, "RUSH-1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, ErrAlreadyValidated) {
				dupe++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 15, dupe)
}

func countAll(t *testing.T, repos repository.Repositories) []int {
	t.Helper()
	ctx := context.Background()
	var out []int
	for _, f := range []func(context.Context) (int, error){
		repos.Zones.Count, repos.Meters.Count, repos.Events.Count,
		repos.Tickets.Count, repos.Merchandise.Count, repos.Logs.Count,
	} {
		n, err := f(ctx)
		require.NoError(t, err)
		out = append(out, n)
	}
	return out
}

func TestSeederIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	tickets := NewTicketService(repos.Tickets, scoring.NewHeuristic(scoring.NewSeededSource(3)), NopPublisher{}, zap.NewNop())
	pub := &recordingPublisher{}
	seeder := NewSeeder(repos, tickets, pub, zap.NewNop())

	require.NoError(t, seeder.Seed(ctx))
	first := countAll(t, repos)
	assert.Equal(t, []int{3, 2, 1, 10, 2, 1}, first)

	require.NoError(t, seeder.Seed(ctx))
	assert.Equal(t, first, countAll(t, repos))
	assert.Len(t, pub.events, 1)

	tk, err := repos.Tickets.GetByCode(ctx, "TICKET-7")
	require.NoError(t, err)
	assert.Equal(t, "Fan 7", tk.CustomerName)
	assert.Equal(t, model.Money(5000), tk.Price)
	assert.LessOrEqual(t, tk.FraudScore, 0.2)

	mt, err := repos.Merchandise.Totals(ctx)
	require.NoError(t, err)
	// 89.99*120 + 29.99*45 = 10798.80 + 1349.55
	assert.Equal(t, "12148.35", mt.Revenue.String())
}

func TestSeederFillsOnlyEmptyTables(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	require.NoError(t, repos.Zones.Create(ctx, &model.CrowdZone{Name: "Existing", Capacity: 10}))
	seeder := NewSeeder(repos, NewTicketService(repos.Tickets, fixedScorer(0), nil, zap.NewNop()), nil, zap.NewNop())

	require.NoError(t, seeder.Seed(ctx))
	n, err := repos.Zones.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSeederConcurrentCallsSeedOnce(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	tickets := NewTicketService(repos.Tickets, fixedScorer(0.1), NopPublisher{}, zap.NewNop())
	pub := &recordingPublisher{}
	seeder := NewSeeder(repos, tickets, pub, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, seeder.Seed(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{3, 2, 1, 10, 2, 1}, countAll(t, repos))
	assert.Len(t, pub.events, 1)
}

func TestEnergyReport(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	require.NoError(t, repos.Meters.Create(ctx, &model.EnergyMeter{Name: "Main Lighting", Location: "Roof", CurrentUsageKW: 450.5, Status: model.MeterOptimal}))
	require.NoError(t, repos.Meters.Create(ctx, &model.EnergyMeter{Name: "HVAC System", Location: "Basement", CurrentUsageKW: 320.2, Status: model.MeterHigh}))

	r := &Reports{Meters: repos.Meters, Forecast: scoring.NewHeuristic(&scoring.SequenceSource{Floats: []float64{0.5}})}
	rep, err := r.Energy(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 770.7, rep.Summary.TotalUsage, 1e-9)
	require.Len(t, rep.History, 6)
	assert.Equal(t, "09:00", rep.History[0].Time)
	assert.InDelta(t, 770.7*0.4, rep.History[0].Usage, 1e-6)
	assert.InDelta(t, 770.7*1.3, rep.History[5].Prediction, 1e-6)
	assert.Equal(t, MeterView{ID: 2, Zone: "Basement", Type: "HVAC System", CurrentReading: 320.2, Status: model.MeterHigh}, rep.Meters[1])

	fc, err := r.MeterForecast(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, fc, scoring.ForecastPoints)
	assert.InDelta(t, 450.5, fc[0], 1e-9)

	_, err = r.MeterForecast(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEnergyHistoryFloors(t *testing.T) {
	h := EnergyHistory(0)
	want := []float64{50, 100, 200, 0, 150, 300}
	for i, p := range h {
		assert.Equal(t, want[i], p.Usage, fmt.Sprintf("slot %s", p.Time))
		assert.Equal(t, 0.0, p.Prediction)
	}
}

func TestZonesWithPredictions(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	require.NoError(t, repos.Zones.Create(ctx, &model.CrowdZone{Name: "South Stand", Capacity: 2000, CurrentCount: 1800, Status: model.ZoneRed}))

	// index 4 picks the +50 trend
	r := &Reports{Zones: repos.Zones, Crowd: scoring.NewHeuristic(&scoring.SequenceSource{Ints: []int{4}})}
	views, err := r.ZonesWithPredictions(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "South Stand", views[0].Name)
	assert.Equal(t, scoring.CrowdPrediction{PredictedCount: 1850, RiskLevel: scoring.RiskHigh, Suggestion: "Open Gate B"}, views[0].AIPrediction)
}

var errBoom = errors.New("boom")

type brokenMerch struct{ repository.MerchandiseRepository }

func (brokenMerch) Totals(context.Context) (repository.MerchandiseTotals, error) {
	return repository.MerchandiseTotals{}, errBoom
}

type brokenTickets struct{ repository.TicketRepository }

func (brokenTickets) ValidateByCode(context.Context, string, time.Time, repository.TicketGuard) (*model.Ticket, error) {
	return nil, errBoom
}

func TestDashboardSnapshotFailsFast(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	newEvent(t, repos)
	repos.Merchandise = brokenMerch{repos.Merchandise}

	rnd := &scoring.SequenceSource{Ints: []int{5}, Floats: []float64{0.5}}
	d := NewDashboard(repos, NewSimulator(repos.Zones, repos.Meters, rnd), fixedHealth(97))

	snap, err := d.Snapshot(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, snap)
}

func TestValidateStoreFailure(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	repos.Tickets = brokenTickets{repos.Tickets}
	svc, pub := newTicketService(repos, 0.1)

	_, err := svc.Validate(context.Background(), "ANY-1")
	require.ErrorIs(t, err, errBoom)
	for _, reason := range []error{ErrTicketNotFound, ErrFraudRejected, ErrAlreadyValidated} {
		assert.NotErrorIs(t, err, reason)
	}
	assert.Empty(t, pub.events)
}
