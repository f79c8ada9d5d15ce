// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/ports/secondary"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func ts(t time.Time) string {
	return db.FormatTime(t)
}

// notFound wraps secondary.ErrNotFound for the given entity.
func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, secondary.ErrNotFound)
}

// archivedClause appends the archived filter to a query.
func archivedClause(filter secondary.ArchivedFilter) string {
	switch filter {
	case secondary.ArchivedOnly:
		return " AND archived = 1"
	case secondary.ArchivedAll:
		return ""
	}
	return " AND archived = 0"
}

// lastOrder reads MAX(order_key) for a sibling group.
func lastOrder(row *sql.Row) (*float64, error) {
	var highest sql.NullFloat64
	if err := row.Scan(&highest); err != nil {
		return nil, err
	}
	if !highest.Valid {
		return nil, nil
	}
	v := highest.Float64
	return &v, nil
}
