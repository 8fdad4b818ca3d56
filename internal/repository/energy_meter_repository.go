package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

const meterColumns = "id, name, location, current_usage_kw, status, last_reading_time"

// EnergyMeterRepo encapsulates all database queries related to energy meters.
type EnergyMeterRepo struct {
	db *sql.DB
}

// NewEnergyMeterRepo constructs an EnergyMeterRepo with the provided DB handle.
func NewEnergyMeterRepo(db *sql.DB) *EnergyMeterRepo {
	return &EnergyMeterRepo{db: db}
}

func scanMeter(s rowScanner) (*model.EnergyMeter, error) {
	var m model.EnergyMeter
	if err := s.Scan(&m.ID, &m.Name, &m.Location, &m.CurrentUsageKW, &m.Status, &m.LastReadingTime); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a meter, stamping LastReadingTime.
func (r *EnergyMeterRepo) Create(ctx context.Context, m *model.EnergyMeter) error {
	m.LastReadingTime = time.Now().UTC()
	const q = `INSERT INTO energy_meters (name, location, current_usage_kw, status, last_reading_time) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Location, m.CurrentUsageKW, m.Status, m.LastReadingTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID fetches a meter by id or returns ErrNotFound.
func (r *EnergyMeterRepo) GetByID(ctx context.Context, id uint64) (*model.EnergyMeter, error) {
	m, err := scanMeter(r.db.QueryRowContext(ctx, "SELECT "+meterColumns+" FROM energy_meters WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// List returns all meters ordered by id.
func (r *EnergyMeterRepo) List(ctx context.Context) ([]*model.EnergyMeter, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+meterColumns+" FROM energy_meters ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.EnergyMeter{}
	for rows.Next() {
		m, err := scanMeter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update overwrites the meter row and refreshes LastReadingTime.
func (r *EnergyMeterRepo) Update(ctx context.Context, m *model.EnergyMeter) error {
	m.LastReadingTime = time.Now().UTC()
	const q = `UPDATE energy_meters
	           SET name = ?, location = ?, current_usage_kw = ?, status = ?, last_reading_time = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Location, m.CurrentUsageKW, m.Status, m.LastReadingTime, m.ID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Delete removes a meter.
func (r *EnergyMeterRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM energy_meters WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Count returns the number of meters.
func (r *EnergyMeterRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM energy_meters")
}

// TotalUsage sums the current reading of every meter.
func (r *EnergyMeterRepo) TotalUsage(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(current_usage_kw), 0) FROM energy_meters").Scan(&total)
	return total, err
}
