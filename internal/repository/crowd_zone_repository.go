package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/stadium-ops/internal/model"
)

const zoneColumns = "id, name, capacity, current_count, status, last_updated"

// CrowdZoneRepo encapsulates all database queries related to crowd zones.
type CrowdZoneRepo struct {
	db *sql.DB
}

// NewCrowdZoneRepo constructs a CrowdZoneRepo with the provided DB handle.
func NewCrowdZoneRepo(db *sql.DB) *CrowdZoneRepo {
	return &CrowdZoneRepo{db: db}
}

func scanZone(s rowScanner) (*model.CrowdZone, error) {
	var z model.CrowdZone
	if err := s.Scan(&z.ID, &z.Name, &z.Capacity, &z.CurrentCount, &z.Status, &z.LastUpdated); err != nil {
		return nil, err
	}
	return &z, nil
}

// Create inserts a zone, stamping LastUpdated.
func (r *CrowdZoneRepo) Create(ctx context.Context, z *model.CrowdZone) error {
	z.LastUpdated = time.Now().UTC()
	const q = `INSERT INTO crowd_zones (name, capacity, current_count, status, last_updated) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, z.Name, z.Capacity, z.CurrentCount, z.Status, z.LastUpdated)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	z.ID = uint64(id)
	return nil
}

// GetByID fetches a zone by id or returns ErrNotFound.
func (r *CrowdZoneRepo) GetByID(ctx context.Context, id uint64) (*model.CrowdZone, error) {
	z, err := scanZone(r.db.QueryRowContext(ctx, "SELECT "+zoneColumns+" FROM crowd_zones WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return z, err
}

// List returns all zones ordered by id.
func (r *CrowdZoneRepo) List(ctx context.Context) ([]*model.CrowdZone, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+zoneColumns+" FROM crowd_zones ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.CrowdZone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// Update overwrites the zone row and refreshes LastUpdated.
func (r *CrowdZoneRepo) Update(ctx context.Context, z *model.CrowdZone) error {
	z.LastUpdated = time.Now().UTC()
	const q = `UPDATE crowd_zones
	           SET name = ?, capacity = ?, current_count = ?, status = ?, last_updated = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, z.Name, z.Capacity, z.CurrentCount, z.Status, z.LastUpdated, z.ID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Delete removes a zone.
func (r *CrowdZoneRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM crowd_zones WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Count returns the number of zones.
func (r *CrowdZoneRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM crowd_zones")
}

// Totals sums occupancy and capacity and counts red zones in one pass.
func (r *CrowdZoneRepo) Totals(ctx context.Context) (ZoneTotals, error) {
	const q = `SELECT COALESCE(SUM(current_count), 0),
	                  COALESCE(SUM(capacity), 0),
	                  COALESCE(SUM(CASE WHEN status = 'red' THEN 1 ELSE 0 END), 0),
	                  COUNT(*)
	           FROM crowd_zones`
	var t ZoneTotals
	err := r.db.QueryRowContext(ctx, q).Scan(&t.CurrentCount, &t.Capacity, &t.RedZones, &t.Zones)
	return t, err
}
