// Package pg implements the analytics core's store contracts against
// Postgres via database/sql + pgx/v5/stdlib, in the shape of the gateway's
// own internal/store/pg package: plain database/sql, explicit column-list
// constants, context.Context on every method.
package pg

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB opens a pooled *sql.DB against dsn using the pgx stdlib driver.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
