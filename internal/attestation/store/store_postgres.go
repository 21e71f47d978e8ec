package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"attestry/pkg/platform/sentinel"
)

// PostgresKV persists registry records in PostgreSQL. Expiry is modeled as an
// expires_at column: reads treat past-due rows as absent and every write
// pushes the deadline out to the full class horizon, matching the refresh
// semantics of the other backends. Reclaiming expired rows is left to an
// external vacuum job.
type PostgresKV struct {
	db    *sql.DB
	clock Clock // injected clock for testability (defaults to time.Now)
}

// PostgresKVOption configures a PostgresKV instance.
type PostgresKVOption func(*PostgresKV)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresKVOption {
	return func(kv *PostgresKV) {
		if clock != nil {
			kv.clock = clock
		}
	}
}

// NewPostgresKV constructs a PostgreSQL-backed store.
func NewPostgresKV(db *sql.DB, opts ...PostgresKVOption) *PostgresKV {
	kv := &PostgresKV{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

// Schema creates the backing table. Callers run it once at startup or from
// migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_records (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
`

func (kv *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt time.Time
	err := kv.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM registry_records WHERE key = $1`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %q: %w", key, err)
	}
	if kv.clock().After(expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	return value, nil
}

const upsertQuery = `
	INSERT INTO registry_records (key, value, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		expires_at = EXCLUDED.expires_at
`

func (kv *PostgresKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := kv.db.ExecContext(ctx, upsertQuery, key, value, kv.clock().Add(ttl))
	if err != nil {
		return fmt.Errorf("postgres put %q: %w", key, err)
	}
	return nil
}

// Apply commits the batch in a single transaction.
func (kv *PostgresKV) Apply(ctx context.Context, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres begin batch: %w", err)
	}
	now := kv.clock()
	for _, m := range mutations {
		if _, err := tx.ExecContext(ctx, upsertQuery, m.Key, m.Value, now.Add(m.TTL)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres apply %q: %w", m.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres commit batch: %w", err)
	}
	return nil
}
