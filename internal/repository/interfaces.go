package repository

import (
	"context"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

// EventRepository persists events.  Delete cascades to the event's tickets.
type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// TicketGuard inspects a ticket while it is locked for validation.  A
// non-nil error aborts the validation and is returned to the caller
// unchanged.
type TicketGuard func(t *model.Ticket) error

// TicketRepository persists tickets.  Update never touches fraud_score,
// is_validated or entry_time; those change only through Create and
// ValidateByCode.
type TicketRepository interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	GetByCode(ctx context.Context, code string) (*model.Ticket, error)
	List(ctx context.Context) ([]*model.Ticket, error)
	Update(ctx context.Context, t *model.Ticket) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
	CountFraudAbove(ctx context.Context, threshold float64) (int, error)
	// ValidateByCode locks the ticket with the given code, runs guard on
	// it and, when guard allows, marks it validated at the given time.
	// At most one concurrent caller can succeed for the same ticket.
	ValidateByCode(ctx context.Context, code string, at time.Time, guard TicketGuard) (*model.Ticket, error)
}

// ZoneTotals is the crowd rollup used by the dashboard.
type ZoneTotals struct {
	CurrentCount int
	Capacity     int
	RedZones     int
	Zones        int
}

// CrowdZoneRepository persists crowd zones.  Create and Update stamp
// LastUpdated.
type CrowdZoneRepository interface {
	Create(ctx context.Context, z *model.CrowdZone) error
	GetByID(ctx context.Context, id uint64) (*model.CrowdZone, error)
	List(ctx context.Context) ([]*model.CrowdZone, error)
	Update(ctx context.Context, z *model.CrowdZone) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
	Totals(ctx context.Context) (ZoneTotals, error)
}

// EnergyMeterRepository persists energy meters.  Create and Update stamp
// LastReadingTime.
type EnergyMeterRepository interface {
	Create(ctx context.Context, m *model.EnergyMeter) error
	GetByID(ctx context.Context, id uint64) (*model.EnergyMeter, error)
	List(ctx context.Context) ([]*model.EnergyMeter, error)
	Update(ctx context.Context, m *model.EnergyMeter) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
	TotalUsage(ctx context.Context) (float64, error)
}

// MerchandiseTotals is the merchandise rollup used by the dashboard.
type MerchandiseTotals struct {
	Revenue       model.Money
	StockQuantity int
}

// MerchandiseRepository persists merchandise items.
type MerchandiseRepository interface {
	Create(ctx context.Context, m *model.MerchandiseItem) error
	GetByID(ctx context.Context, id uint64) (*model.MerchandiseItem, error)
	List(ctx context.Context) ([]*model.MerchandiseItem, error)
	ListFirst(ctx context.Context, n int) ([]*model.MerchandiseItem, error)
	Update(ctx context.Context, m *model.MerchandiseItem) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
	Totals(ctx context.Context) (MerchandiseTotals, error)
}

// SystemLogRepository appends and reads system logs.  There is no update
// or delete: logs are append-only.
type SystemLogRepository interface {
	Create(ctx context.Context, l *model.SystemLog) error
	GetByID(ctx context.Context, id uint64) (*model.SystemLog, error)
	List(ctx context.Context) ([]*model.SystemLog, error)
	Recent(ctx context.Context, n int) ([]*model.SystemLog, error)
	Count(ctx context.Context) (int, error)
}

// UserRepository persists operator accounts.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// SessionRepository persists hashed session ids.
type SessionRepository interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string) (uint64, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// Repositories bundles every repository the application needs so that
// main can hand one value to the router.
type Repositories struct {
	Events      EventRepository
	Tickets     TicketRepository
	Zones       CrowdZoneRepository
	Meters      EnergyMeterRepository
	Merchandise MerchandiseRepository
	Logs        SystemLogRepository
	Users       UserRepository
	Sessions    SessionRepository
}
