package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stadium-ops/internal/model"
)

const eventColumns = "id, name, description, start_time, end_time, status, expected_attendance"

// EventRepo encapsulates all database queries related to events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the provided DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func scanEvent(s rowScanner) (*model.Event, error) {
	var e model.Event
	if err := s.Scan(&e.ID, &e.Name, &e.Description, &e.StartTime, &e.EndTime, &e.Status, &e.ExpectedAttendance); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event and populates its ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (name, description, start_time, end_time, status, expected_attendance)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.Name, e.Description, e.StartTime.UTC(), e.EndTime.UTC(), e.Status, e.ExpectedAttendance)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID fetches an event by id or returns ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// List returns all events ordered by id.
func (r *EventRepo) List(ctx context.Context) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM events ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update overwrites every mutable column of the event.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events
	           SET name = ?, description = ?, start_time = ?, end_time = ?, status = ?, expected_attendance = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, e.Name, e.Description, e.StartTime.UTC(), e.EndTime.UTC(), e.Status, e.ExpectedAttendance, e.ID)
	if err != nil {
		return err
	}
	// database.Open sets clientFoundRows, so an unchanged row still counts.
	return affectedOrNotFound(res)
}

// Delete removes the event and its tickets in one transaction.
func (r *EventRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM tickets WHERE event_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Count returns the number of events.
func (r *EventRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM events")
}

// CountByStatus returns the number of events in the given status.
func (r *EventRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM events WHERE status = ?", status)
}
