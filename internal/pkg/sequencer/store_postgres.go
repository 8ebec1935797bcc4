package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema creates the table PostgresStore reads and writes.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS stream_sequences (
  queue         TEXT PRIMARY KEY,
  last_sequence BIGINT NOT NULL,
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	selectLastSQL = `SELECT last_sequence FROM stream_sequences WHERE queue = $1`
	advanceSQL    = `
INSERT INTO stream_sequences (queue, last_sequence, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (queue) DO UPDATE
  SET last_sequence = EXCLUDED.last_sequence, updated_at = now()
  WHERE stream_sequences.last_sequence < EXCLUDED.last_sequence`
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps sequence records in a stream_sequences table.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects a pool for databaseURL and pings it.
func OpenPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// EnsureSchema creates the stream_sequences table if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("sequencer: create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Last(ctx context.Context, queue string) (int64, bool, error) {
	var seq int64
	err := s.db.QueryRow(ctx, selectLastSQL, queue).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sequencer: load %s: %w", queue, err)
	}
	return seq, true, nil
}

func (s *PostgresStore) Advance(ctx context.Context, queue string, seq int64) (bool, error) {
	tag, err := s.db.Exec(ctx, advanceSQL, queue, seq)
	if err != nil {
		return false, fmt.Errorf("sequencer: advance %s: %w", queue, err)
	}
	return tag.RowsAffected() == 1, nil
}
