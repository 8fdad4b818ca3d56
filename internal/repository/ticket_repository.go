package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

const ticketColumns = "id, event_id, customer_name, ticket_code, is_validated, entry_time, fraud_score, seat_number, price_cents"

// TicketRepo encapsulates all database queries related to tickets.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the provided DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

func scanTicket(s rowScanner) (*model.Ticket, error) {
	var (
		t     model.Ticket
		entry sql.NullTime
		price int64
	)
	if err := s.Scan(&t.ID, &t.EventID, &t.CustomerName, &t.TicketCode, &t.IsValidated, &entry, &t.FraudScore, &t.SeatNumber, &price); err != nil {
		return nil, err
	}
	if entry.Valid {
		at := entry.Time.UTC()
		t.EntryTime = &at
	}
	t.Price = model.Money(price)
	return &t, nil
}

// Create inserts a ticket including its fraud score.  A duplicate code
// yields ErrDuplicate and an unknown event ErrInvalidReference.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO tickets (event_id, customer_name, ticket_code, is_validated, entry_time, fraud_score, seat_number, price_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var entry sql.NullTime
	if t.EntryTime != nil {
		entry = sql.NullTime{Time: t.EntryTime.UTC(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, q, t.EventID, t.CustomerName, t.TicketCode, t.IsValidated, entry, t.FraudScore, t.SeatNumber, t.Price.Cents())
	if err != nil {
		return translateMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches a ticket by id or returns ErrNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// GetByCode fetches a ticket by its unique code or returns ErrNotFound.
func (r *TicketRepo) GetByCode(ctx context.Context, code string) (*model.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE ticket_code = ?", code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// List returns all tickets ordered by id.
func (r *TicketRepo) List(ctx context.Context) ([]*model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+ticketColumns+" FROM tickets ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update writes the operator-editable columns.  fraud_score,
// is_validated and entry_time are left untouched.
func (r *TicketRepo) Update(ctx context.Context, t *model.Ticket) error {
	const q = `UPDATE tickets
	           SET event_id = ?, customer_name = ?, ticket_code = ?, seat_number = ?, price_cents = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, t.EventID, t.CustomerName, t.TicketCode, t.SeatNumber, t.Price.Cents(), t.ID)
	if err != nil {
		return translateMySQLError(err)
	}
	return affectedOrNotFound(res)
}

// Delete removes a ticket.
func (r *TicketRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Count returns the number of tickets issued.
func (r *TicketRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM tickets")
}

// CountFraudAbove returns the number of tickets scored strictly above
// threshold.
func (r *TicketRepo) CountFraudAbove(ctx context.Context, threshold float64) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM tickets WHERE fraud_score > ?", threshold)
}

// ValidateByCode runs the read-check-write of a gate scan inside one
// transaction.  The row is locked with SELECT ... FOR UPDATE so a second
// scan of the same code waits and then observes is_validated = 1.
func (r *TicketRepo) ValidateByCode(ctx context.Context, code string, at time.Time, guard TicketGuard) (*model.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	t, err := scanTicket(tx.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE ticket_code = ? FOR UPDATE", code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := guard(t); err != nil {
		return t, err
	}

	at = at.UTC()
	res, err := tx.ExecContext(ctx,
		"UPDATE tickets SET is_validated = 1, entry_time = ? WHERE id = ? AND is_validated = 0",
		at, t.ID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	t.IsValidated = true
	t.EntryTime = &at
	return t, nil
}
