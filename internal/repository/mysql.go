package repository

import (
	"context"
	"database/sql"
)

// NewMySQLRepositories wires every repository to the given MySQL pool.
func NewMySQLRepositories(db *sql.DB) Repositories {
	return Repositories{
		Events:      NewEventRepo(db),
		Tickets:     NewTicketRepo(db),
		Zones:       NewCrowdZoneRepo(db),
		Meters:      NewEnergyMeterRepo(db),
		Merchandise: NewMerchandiseRepo(db),
		Logs:        NewSystemLogRepo(db),
		Users:       NewUserRepo(db),
		Sessions:    NewSessionRepo(db),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// countRows runs a single-column integer query such as SELECT COUNT(*).
func countRows(ctx context.Context, db *sql.DB, q string, args ...any) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// affectedOrNotFound turns a zero-row UPDATE/DELETE into ErrNotFound.
func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
