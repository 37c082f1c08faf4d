package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const upsertSQLiteStateQuery = `
    INSERT INTO gallery_state (key, value, updated_at)
    VALUES (?, ?, ?)
    ON CONFLICT (key) DO UPDATE SET
        value = excluded.value,
        updated_at = excluded.updated_at
`

var _ StateStore = (*SQLiteStateStore)(nil)

// SQLiteStateStore хранит блобы в локальном файле SQLite.
type SQLiteStateStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStateStore оборачивает открытую базу со схемой gallery_state.
func NewSQLiteStateStore(db *sql.DB, logger *zap.Logger) *SQLiteStateStore {
	return &SQLiteStateStore{
		db:     db,
		logger: logger.Named("SQLiteStateStore"),
	}
}

func (s *SQLiteStateStore) LoadAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM gallery_state WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		s.logger.Error("Failed to query state", zap.Strings("keys", keys), zap.Error(err))
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan state row: %w", err)
		}
		out[key] = []byte(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate state rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStateStore) SaveAll(ctx context.Context, entries map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for key, value := range entries {
		if _, err := tx.ExecContext(ctx, upsertSQLiteStateQuery, key, string(value), now); err != nil {
			s.logger.Error("Failed to upsert state", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("failed to save state %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	s.logger.Debug("State saved", zap.Int("keys", len(entries)))
	return nil
}

func (s *SQLiteStateStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStateStore) Close() error {
	return s.db.Close()
}
