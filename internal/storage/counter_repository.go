package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/counter-service/internal/model"
)

// CounterRepository defines persistence for the counter history.
// Implementations must be safe for concurrent use.
type CounterRepository interface {
	// Current returns the count of the most recent record, or 0 if there are none.
	Current(ctx context.Context) (int64, error)
	// Increment appends a record holding the current count plus one and returns it.
	Increment(ctx context.Context) (*model.CounterRecord, error)
	// History returns up to limit records, newest first.
	History(ctx context.Context, limit int) ([]model.CounterRecord, error)
	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error
}

const currentQuery = `SELECT count FROM counter_history ORDER BY id DESC LIMIT 1`

// The read of the previous count and the insert happen in one statement, so
// there is no round trip between them for another writer to slip into.
const incrementQuery = `
	INSERT INTO counter_history (count)
	SELECT COALESCE((SELECT count FROM counter_history ORDER BY id DESC LIMIT 1), 0) + 1
	RETURNING id
`

const recordQuery = `SELECT id, count, timestamp FROM counter_history WHERE id = ?`

// Under READ COMMITTED two INSERT ... SELECT statements can still read the
// same previous row; EXCLUSIVE mode lets readers through but queues writers.
const postgresLock = `LOCK TABLE counter_history IN EXCLUSIVE MODE`

const historyQuery = `
	SELECT id, count, timestamp FROM counter_history
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
`

type sqlCounterRepository struct {
	db *sqlx.DB
}

// NewCounterRepository creates a CounterRepository over a PostgreSQL or SQLite pool.
func NewCounterRepository(db *sqlx.DB) CounterRepository {
	return &sqlCounterRepository{db: db}
}

func (r *sqlCounterRepository) Current(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, currentQuery)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting current count: %w", err)
	}
	return count, nil
}

func (r *sqlCounterRepository) Increment(ctx context.Context) (*model.CounterRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning increment: %w", err)
	}
	// Rollback after Commit is a no-op returning sql.ErrTxDone.
	defer func() { _ = tx.Rollback() }()

	// SQLite runs on a single connection, which already serializes writers.
	if r.db.DriverName() == DriverPostgres {
		if _, err := tx.ExecContext(ctx, postgresLock); err != nil {
			return nil, fmt.Errorf("locking counter_history: %w", err)
		}
	}

	var id int64
	if err := tx.GetContext(ctx, &id, incrementQuery); err != nil {
		return nil, fmt.Errorf("inserting count: %w", err)
	}

	// Read the row back through a plain SELECT so the timestamp column keeps
	// its declared type on every driver.
	var rec model.CounterRecord
	if err := tx.GetContext(ctx, &rec, tx.Rebind(recordQuery), id); err != nil {
		return nil, fmt.Errorf("reading inserted record %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing increment: %w", err)
	}
	return &rec, nil
}

func (r *sqlCounterRepository) History(ctx context.Context, limit int) ([]model.CounterRecord, error) {
	records := []model.CounterRecord{}
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(historyQuery), limit); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return records, nil
}

func (r *sqlCounterRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
