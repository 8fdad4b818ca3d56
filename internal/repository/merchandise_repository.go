package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stadium-ops/internal/model"
)

const merchColumns = "id, name, category, price_cents, stock_quantity, sold_count"

// MerchandiseRepo encapsulates all database queries related to
// merchandise items.  Prices are stored as integer cents.
type MerchandiseRepo struct {
	db *sql.DB
}

// NewMerchandiseRepo constructs a MerchandiseRepo with the provided DB handle.
func NewMerchandiseRepo(db *sql.DB) *MerchandiseRepo {
	return &MerchandiseRepo{db: db}
}

func scanMerch(s rowScanner) (*model.MerchandiseItem, error) {
	var (
		m     model.MerchandiseItem
		price int64
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Category, &price, &m.StockQuantity, &m.SoldCount); err != nil {
		return nil, err
	}
	m.Price = model.Money(price)
	return &m, nil
}

// Create inserts an item and populates its ID.
func (r *MerchandiseRepo) Create(ctx context.Context, m *model.MerchandiseItem) error {
	const q = `INSERT INTO merchandise_items (name, category, price_cents, stock_quantity, sold_count) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Category, m.Price.Cents(), m.StockQuantity, m.SoldCount)
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

// GetByID fetches an item by id or returns ErrNotFound.
func (r *MerchandiseRepo) GetByID(ctx context.Context, id uint64) (*model.MerchandiseItem, error) {
	m, err := scanMerch(r.db.QueryRowContext(ctx, "SELECT "+merchColumns+" FROM merchandise_items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// List returns all items ordered by id.
func (r *MerchandiseRepo) List(ctx context.Context) ([]*model.MerchandiseItem, error) {
	return r.query(ctx, "SELECT "+merchColumns+" FROM merchandise_items ORDER BY id")
}

// ListFirst returns the first n items in id order.
func (r *MerchandiseRepo) ListFirst(ctx context.Context, n int) ([]*model.MerchandiseItem, error) {
	return r.query(ctx, "SELECT "+merchColumns+" FROM merchandise_items ORDER BY id LIMIT ?", n)
}

func (r *MerchandiseRepo) query(ctx context.Context, q string, args ...any) ([]*model.MerchandiseItem, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.MerchandiseItem{}
	for rows.Next() {
		m, err := scanMerch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update overwrites every mutable column of the item.
func (r *MerchandiseRepo) Update(ctx context.Context, m *model.MerchandiseItem) error {
	const q = `UPDATE merchandise_items
	           SET name = ?, category = ?, price_cents = ?, stock_quantity = ?, sold_count = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Category, m.Price.Cents(), m.StockQuantity, m.SoldCount, m.ID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Delete removes an item.
func (r *MerchandiseRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM merchandise_items WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// Count returns the number of items.
func (r *MerchandiseRepo) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM merchandise_items")
}

// Totals returns revenue (exact, in cents) and total stock.
func (r *MerchandiseRepo) Totals(ctx context.Context) (MerchandiseTotals, error) {
	const q = `SELECT COALESCE(SUM(price_cents * sold_count), 0), COALESCE(SUM(stock_quantity), 0) FROM merchandise_items`
	var (
		t       MerchandiseTotals
		revenue int64
	)
	if err := r.db.QueryRowContext(ctx, q).Scan(&revenue, &t.StockQuantity); err != nil {
		return MerchandiseTotals{}, err
	}
	t.Revenue = model.Money(revenue)
	return t, nil
}
