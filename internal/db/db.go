package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB is a database handle that remembers which driver it speaks.
type DB struct {
	*sql.DB
	Driver string
}

func Connect(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite works best with a single writer, and each connection to
		// :memory: would otherwise see its own database.
		database.SetMaxOpenConns(1)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: database, Driver: driver}, nil
}

var dollarParam = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $N placeholders for drivers that expect '?'. Arguments
// must be passed in placeholder order.
func (d *DB) Rebind(query string) string {
	if d.Driver == DriverPostgres {
		return query
	}
	return dollarParam.ReplaceAllString(query, "?")
}

func (d *DB) Migrate(ctx context.Context) error {
	schema, ok := schemas[d.Driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", d.Driver)
	}
	if _, err := d.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

var schemas = map[string]string{
	DriverPostgres: `
CREATE TABLE IF NOT EXISTS nudge_events (
	id               TEXT PRIMARY KEY,
	event_name       TEXT NOT NULL,
	event_time       TIMESTAMPTZ NOT NULL,
	request_id       TEXT,
	session_id       TEXT,
	platform         TEXT NOT NULL DEFAULT 'unknown',
	app_version      TEXT,
	source           TEXT NOT NULL,
	source_event_key TEXT UNIQUE,
	task_id          TEXT,
	properties       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nudge_events_time ON nudge_events (event_time);
`,
	DriverSQLite: `
CREATE TABLE IF NOT EXISTS nudge_events (
	id               TEXT PRIMARY KEY,
	event_name       TEXT NOT NULL,
	event_time       TEXT NOT NULL,
	request_id       TEXT,
	session_id       TEXT,
	platform         TEXT NOT NULL DEFAULT 'unknown',
	app_version      TEXT,
	source           TEXT NOT NULL,
	source_event_key TEXT UNIQUE,
	task_id          TEXT,
	properties       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nudge_events_time ON nudge_events (event_time);
`,
}
