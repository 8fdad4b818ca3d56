package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

// memStore is an in-process stand-in for the MySQL schema.  All tables
// share one mutex so cross-table rules (cascade delete, foreign keys)
// hold under concurrency.  Rows are copied on the way in and out.
type memStore struct {
	mu sync.Mutex

	nextID map[string]uint64

	events   map[uint64]model.Event
	tickets  map[uint64]model.Ticket
	zones    map[uint64]model.CrowdZone
	meters   map[uint64]model.EnergyMeter
	merch    map[uint64]model.MerchandiseItem
	logs     map[uint64]model.SystemLog
	users    map[uint64]model.User
	sessions map[string]model.Session
}

func (s *memStore) id(table string) uint64 {
	s.nextID[table]++
	return s.nextID[table]
}

// NewMemoryRepositories returns repositories backed by process memory.
// It is used by tests and by STORE_DRIVER=memory for local demos.
func NewMemoryRepositories() Repositories {
	s := &memStore{
		nextID:   map[string]uint64{},
		events:   map[uint64]model.Event{},
		tickets:  map[uint64]model.Ticket{},
		zones:    map[uint64]model.CrowdZone{},
		meters:   map[uint64]model.EnergyMeter{},
		merch:    map[uint64]model.MerchandiseItem{},
		logs:     map[uint64]model.SystemLog{},
		users:    map[uint64]model.User{},
		sessions: map[string]model.Session{},
	}
	return Repositories{
		Events:      &memEvents{s},
		Tickets:     &memTickets{s},
		Zones:       &memZones{s},
		Meters:      &memMeters{s},
		Merchandise: &memMerch{s},
		Logs:        &memLogs{s},
		Users:       &memUsers{s},
		Sessions:    &memSessions{s},
	}
}

func sortedIDs[V any](m map[uint64]V) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---- events ----

type memEvents struct{ s *memStore }

func (r *memEvents) Create(_ context.Context, e *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id("events")
	r.s.events[e.ID] = *e
	return nil
}

func (r *memEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (r *memEvents) List(_ context.Context) ([]*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Event{}
	for _, id := range sortedIDs(r.s.events) {
		e := r.s.events[id]
		out = append(out, &e)
	}
	return out, nil
}

func (r *memEvents) Update(_ context.Context, e *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[e.ID]; !ok {
		return ErrNotFound
	}
	r.s.events[e.ID] = *e
	return nil
}

func (r *memEvents) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return ErrNotFound
	}
	for tid, t := range r.s.tickets {
		if t.EventID == id {
			delete(r.s.tickets, tid)
		}
	}
	delete(r.s.events, id)
	return nil
}

func (r *memEvents) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.events), nil
}

func (r *memEvents) CountByStatus(_ context.Context, status string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.events {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

// ---- tickets ----

type memTickets struct{ s *memStore }

// checkTicket enforces the unique code and the event foreign key.
// Callers hold the lock.
func (r *memTickets) checkTicket(t *model.Ticket) error {
	if _, ok := r.s.events[t.EventID]; !ok {
		return ErrInvalidReference
	}
	for id, other := range r.s.tickets {
		if id != t.ID && other.TicketCode == t.TicketCode {
			return ErrDuplicate
		}
	}
	return nil
}

func (r *memTickets) Create(_ context.Context, t *model.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = 0
	if err := r.checkTicket(t); err != nil {
		return err
	}
	t.ID = r.s.id("tickets")
	r.s.tickets[t.ID] = copyTicket(*t)
	return nil
}

func copyTicket(t model.Ticket) model.Ticket {
	if t.EntryTime != nil {
		at := *t.EntryTime
		t.EntryTime = &at
	}
	return t
}

func (r *memTickets) GetByID(_ context.Context, id uint64) (*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = copyTicket(t)
	return &t, nil
}

func (r *memTickets) GetByCode(_ context.Context, code string) (*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tickets {
		if t.TicketCode == code {
			t = copyTicket(t)
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memTickets) List(_ context.Context) ([]*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Ticket{}
	for _, id := range sortedIDs(r.s.tickets) {
		t := copyTicket(r.s.tickets[id])
		out = append(out, &t)
	}
	return out, nil
}

func (r *memTickets) Update(_ context.Context, t *model.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.tickets[t.ID]
	if !ok {
		return ErrNotFound
	}
	if err := r.checkTicket(t); err != nil {
		return err
	}
	cur.EventID = t.EventID
	cur.CustomerName = t.CustomerName
	cur.TicketCode = t.TicketCode
	cur.SeatNumber = t.SeatNumber
	cur.Price = t.Price
	r.s.tickets[t.ID] = cur
	return nil
}

func (r *memTickets) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.tickets, id)
	return nil
}

func (r *memTickets) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.tickets), nil
}

func (r *memTickets) CountFraudAbove(_ context.Context, threshold float64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, t := range r.s.tickets {
		if t.FraudScore > threshold {
			n++
		}
	}
	return n, nil
}

func (r *memTickets) ValidateByCode(_ context.Context, code string, at time.Time, guard TicketGuard) (*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.tickets {
		if t.TicketCode != code {
			continue
		}
		view := copyTicket(t)
		if err := guard(&view); err != nil {
			return &view, err
		}
		if t.IsValidated {
			return nil, ErrConflict
		}
		at = at.UTC()
		t.IsValidated = true
		t.EntryTime = &at
		r.s.tickets[id] = t
		out := copyTicket(t)
		return &out, nil
	}
	return nil, ErrNotFound
}

// ---- crowd zones ----

type memZones struct{ s *memStore }

func (r *memZones) Create(_ context.Context, z *model.CrowdZone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	z.ID = r.s.id("zones")
	z.LastUpdated = time.Now().UTC()
	r.s.zones[z.ID] = *z
	return nil
}

func (r *memZones) GetByID(_ context.Context, id uint64) (*model.CrowdZone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	z, ok := r.s.zones[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &z, nil
}

func (r *memZones) List(_ context.Context) ([]*model.CrowdZone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.CrowdZone{}
	for _, id := range sortedIDs(r.s.zones) {
		z := r.s.zones[id]
		out = append(out, &z)
	}
	return out, nil
}

func (r *memZones) Update(_ context.Context, z *model.CrowdZone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.zones[z.ID]; !ok {
		return ErrNotFound
	}
	z.LastUpdated = time.Now().UTC()
	r.s.zones[z.ID] = *z
	return nil
}

func (r *memZones) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.zones[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.zones, id)
	return nil
}

func (r *memZones) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.zones), nil
}

func (r *memZones) Totals(_ context.Context) (ZoneTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var t ZoneTotals
	for _, z := range r.s.zones {
		t.Zones++
		t.CurrentCount += z.CurrentCount
		t.Capacity += z.Capacity
		if z.Status == model.ZoneRed {
			t.RedZones++
		}
	}
	return t, nil
}

// ---- energy meters ----

type memMeters struct{ s *memStore }

func (r *memMeters) Create(_ context.Context, m *model.EnergyMeter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id("meters")
	m.LastReadingTime = time.Now().UTC()
	r.s.meters[m.ID] = *m
	return nil
}

func (r *memMeters) GetByID(_ context.Context, id uint64) (*model.EnergyMeter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meters[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *memMeters) List(_ context.Context) ([]*model.EnergyMeter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.EnergyMeter{}
	for _, id := range sortedIDs(r.s.meters) {
		m := r.s.meters[id]
		out = append(out, &m)
	}
	return out, nil
}

func (r *memMeters) Update(_ context.Context, m *model.EnergyMeter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.meters[m.ID]; !ok {
		return ErrNotFound
	}
	m.LastReadingTime = time.Now().UTC()
	r.s.meters[m.ID] = *m
	return nil
}

func (r *memMeters) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.meters[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.meters, id)
	return nil
}

func (r *memMeters) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.meters), nil
}

func (r *memMeters) TotalUsage(_ context.Context) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := 0.0
	for _, id := range sortedIDs(r.s.meters) {
		total += r.s.meters[id].CurrentUsageKW
	}
	return total, nil
}

// ---- merchandise ----

type memMerch struct{ s *memStore }

func (r *memMerch) Create(_ context.Context, m *model.MerchandiseItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id("merch")
	r.s.merch[m.ID] = *m
	return nil
}

func (r *memMerch) GetByID(_ context.Context, id uint64) (*model.MerchandiseItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.merch[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *memMerch) List(ctx context.Context) ([]*model.MerchandiseItem, error) {
	return r.ListFirst(ctx, -1)
}

// ListFirst returns the first n items by id; a negative n returns all.
func (r *memMerch) ListFirst(_ context.Context, n int) ([]*model.MerchandiseItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.MerchandiseItem{}
	for _, id := range sortedIDs(r.s.merch) {
		if n >= 0 && len(out) == n {
			break
		}
		m := r.s.merch[id]
		out = append(out, &m)
	}
	return out, nil
}

func (r *memMerch) Update(_ context.Context, m *model.MerchandiseItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.merch[m.ID]; !ok {
		return ErrNotFound
	}
	r.s.merch[m.ID] = *m
	return nil
}

func (r *memMerch) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.merch[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.merch, id)
	return nil
}

func (r *memMerch) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.merch), nil
}

func (r *memMerch) Totals(_ context.Context) (MerchandiseTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var t MerchandiseTotals
	for _, m := range r.s.merch {
		t.Revenue = t.Revenue.Add(m.Revenue())
		t.StockQuantity += m.StockQuantity
	}
	return t, nil
}

// ---- system logs ----

type memLogs struct{ s *memStore }

func (r *memLogs) Create(_ context.Context, l *model.SystemLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	l.ID = r.s.id("logs")
	r.s.logs[l.ID] = *l
	return nil
}

func (r *memLogs) GetByID(_ context.Context, id uint64) (*model.SystemLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.logs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (r *memLogs) List(_ context.Context) ([]*model.SystemLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.SystemLog{}
	for _, id := range sortedIDs(r.s.logs) {
		l := r.s.logs[id]
		out = append(out, &l)
	}
	return out, nil
}

func (r *memLogs) Recent(_ context.Context, n int) ([]*model.SystemLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]model.SystemLog, 0, len(r.s.logs))
	for _, l := range r.s.logs {
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.After(all[j].Timestamp)
		}
		return all[i].ID > all[j].ID
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	out := make([]*model.SystemLog, 0, len(all))
	for i := range all {
		out = append(out, &all[i])
	}
	return out, nil
}

func (r *memLogs) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.logs), nil
}

// ---- users and sessions ----

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Username = strings.TrimSpace(u.Username)
	for _, other := range r.s.users {
		if other.Username == u.Username {
			return ErrDuplicate
		}
	}
	u.ID = r.s.id("users")
	u.CreatedAt = time.Now().UTC()
	r.s.users[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	username = strings.TrimSpace(username)
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

type memSessions struct{ s *memStore }

func (r *memSessions) Store(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[tokenHash] = model.Session{
		ID:        r.s.id("sessions"),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp.UTC(),
	}
	return nil
}

func (r *memSessions) Validate(_ context.Context, tokenHash string) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[tokenHash]
	if !ok || sess.RevokedAt != nil || time.Now().UTC().After(sess.ExpiresAt) {
		return 0, ErrNotFound
	}
	return sess.UserID, nil
}

func (r *memSessions) Revoke(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[tokenHash]
	if !ok || sess.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	sess.RevokedAt = &now
	r.s.sessions[tokenHash] = sess
	return nil
}
