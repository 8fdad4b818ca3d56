// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios without knowing which store backs the repository.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update would violate a
// unique key (ticket code, username). Handlers should translate this
// into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate key")

// ErrInvalidReference is returned when a row points at a parent that
// does not exist, such as a ticket for an unknown event.
var ErrInvalidReference = errors.New("invalid reference")

// ErrConflict is returned when a conditional write lost against a
// concurrent writer, e.g. two gates scanning the same ticket at once.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers we translate into sentinels.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// translateMySQLError maps driver errors onto the package sentinels and
// returns any other error unchanged.
func translateMySQLError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrDuplicate
		case mysqlNoReferencedRow:
			return ErrInvalidReference
		}
	}
	return err
}
