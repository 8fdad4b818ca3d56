package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

const logColumns = "id, created_at, module, level, message"

// SystemLogRepo appends and reads the system_logs table.  It exposes no
// update or delete.
type SystemLogRepo struct {
	db *sql.DB
}

// NewSystemLogRepo constructs a SystemLogRepo with the provided DB handle.
func NewSystemLogRepo(db *sql.DB) *SystemLogRepo {
	return &SystemLogRepo{db: db}
}

func scanLog(s rowScanner) (*model.SystemLog, error) {
	var l model.SystemLog
	if err := s.Scan(&l.ID, &l.Timestamp, &l.Module, &l.Level, &l.Message); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create appends a log row.  A zero Timestamp is set to now.
func (r *SystemLogRepo) Create(ctx context.Context, l *model.SystemLog) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	const q = `INSERT INTO system_logs (created_at, module, level, message) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, l.Timestamp.UTC(), l.Module, l.Level, l.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// GetByID fetches a log row by id or returns ErrNotFound.
func (r *SystemLogRepo) GetByID(ctx context.Context, id uint64) (*model.SystemLog, error) {
	l, err := scanLog(r.db.QueryRowContext(ctx, "SELECT "+logColumns+" FROM system_logs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// List returns all log rows in insertion order.
func (r *SystemLogRepo) List(ctx context.Context) ([]*model.SystemLog, error) {
	return r.query(ctx, "SELECT "+logColumns+" FROM system_logs ORDER BY id")
}

// Recent returns the n newest rows, newest first.
func (r *SystemLogRepo) Recent(ctx context.Context, n int) ([]*model.SystemLog, error) {
	return r.query(ctx, "SELECT "+logColumns+" FROM system_logs ORDER BY created_at DESC, id DESC LIMIT ?", n)
}

func (r *SystemLogRepo) query(ctx context.Context, q string, args ...any) ([]*model.SystemLog, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.SystemLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Count returns the number of log rows.
func (r *SystemLogRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM system_logs")
}
