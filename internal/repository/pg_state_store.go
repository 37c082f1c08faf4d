package repository

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	selectPgStateQuery = `SELECT key, value::text AS value FROM gallery_state WHERE key = ANY($1)`
	upsertPgStateQuery = `
        INSERT INTO gallery_state (key, value)
        VALUES ($1, $2::jsonb)
        ON CONFLICT (key) DO UPDATE SET
            value = EXCLUDED.value,
            updated_at = NOW()
    `
)

// DBTX общий интерфейс для пула и транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ StateStore = (*PgStateStore)(nil)

type stateRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// PgStateStore хранит блобы в таблице gallery_state (jsonb).
type PgStateStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgStateStore(pool *pgxpool.Pool, logger *zap.Logger) *PgStateStore {
	return &PgStateStore{
		pool:   pool,
		logger: logger.Named("PgStateStore"),
	}
}

func (s *PgStateStore) LoadAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	return loadPgState(ctx, s.pool, keys)
}

func loadPgState(ctx context.Context, querier DBTX, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var rows []stateRow
	if err := pgxscan.Select(ctx, querier, &rows, selectPgStateQuery, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	for _, r := range rows {
		out[r.Key] = []byte(r.Value)
	}
	return out, nil
}

func (s *PgStateStore) SaveAll(ctx context.Context, entries map[string][]byte) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := savePgState(ctx, tx, entries); err != nil {
		s.logger.Error("Failed to save state", zap.Error(err))
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	s.logger.Debug("State saved", zap.Int("keys", len(entries)))
	return nil
}

func savePgState(ctx context.Context, querier DBTX, entries map[string][]byte) error {
	for key, value := range entries {
		if _, err := querier.Exec(ctx, upsertPgStateQuery, key, string(value)); err != nil {
			return fmt.Errorf("failed to upsert state %s: %w", key, err)
		}
	}
	return nil
}

func (s *PgStateStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStateStore) Close() error {
	s.pool.Close()
	return nil
}
