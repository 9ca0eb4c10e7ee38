// Package storage handles persistence of the counter history in PostgreSQL or SQLite.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // registers the "postgres" driver
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/fleveque/counter-service/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS counter_history (
    id        SERIAL PRIMARY KEY,
    count     INTEGER NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_counter_history_timestamp ON counter_history(timestamp);
`

// SQLite's CURRENT_TIMESTAMP only has second precision, which makes
// "newest first" ambiguous for increments within the same second.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS counter_history (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    count     INTEGER NOT NULL,
    timestamp TIMESTAMP NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_counter_history_timestamp ON counter_history(timestamp);
`

// ParseURL maps a connection string to a database/sql driver name and DSN.
// postgres:// URLs and key=value strings go to lib/pq; sqlite://, file: and
// bare paths go to go-sqlite3.
func ParseURL(url string) (driver, dsn string, err error) {
	switch {
	case url == "":
		return "", "", fmt.Errorf("empty database url")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.Contains(url, "host=") || strings.Contains(url, "dbname="):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return DriverSQLite, sqliteDSN(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.Contains(url, "://"):
		return "", "", fmt.Errorf("unsupported database url scheme: %s", url[:strings.Index(url, "://")])
	default:
		return DriverSQLite, sqliteDSN(url), nil
	}
}

// sqliteDSN adds the pragmas we rely on:
// - WAL mode: concurrent reads while writing
// - busy_timeout: wait up to 5s instead of failing on lock contention
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
}

// NewDatabase opens the connection pool described by cfg. It does not touch
// the network: database/sql connects lazily, and the startup check runs
// separately so an unreachable database never blocks the listener.
func NewDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite performs best with a single writer connection
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// EnsureSchema creates counter_history if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := postgresSchema
	if db.DriverName() == DriverSQLite {
		schema = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// ServerTime asks the database for its clock. It doubles as a connectivity check.
func ServerTime(ctx context.Context, db *sqlx.DB) (string, error) {
	var now string
	if err := db.GetContext(ctx, &now, "SELECT CURRENT_TIMESTAMP"); err != nil {
		return "", fmt.Errorf("querying server time: %w", err)
	}
	return now, nil
}
