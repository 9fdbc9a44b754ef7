// Package dbx opens the admin database behind a storage location and
// defines the query handle the repositories accept.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DBTX is satisfied by *sql.DB and *sql.Tx, so repositories run the same
// queries inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect names the SQL flavour behind a storage location.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectFor infers the dialect from a storage location. postgres:// and
// postgresql:// URLs are PostgreSQL; anything else is a SQLite path or DSN.
func DialectFor(location string) Dialect {
	l := strings.ToLower(location)
	if strings.HasPrefix(l, "postgres://") || strings.HasPrefix(l, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to the database at location and pings it.
func Open(ctx context.Context, location string) (*sql.DB, Dialect, error) {
	dialect := DialectFor(location)

	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case DialectPostgres:
		db, err = sql.Open("pgx", location)
	default:
		db, err = sql.Open("sqlite", strings.TrimPrefix(location, "sqlite://"))
		if err == nil {
			// a :memory: database lives and dies with its connection
			db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, "", fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s database: %w", dialect, err)
	}

	return db, dialect, nil
}
