package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/aegis-screener/pkg/database"
)

// PostgresSchema creates the single-row cache table
var PostgresSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS screener`,
	`CREATE TABLE IF NOT EXISTS screener.result_cache (
		id         SMALLINT PRIMARY KEY CHECK (id = 1),
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// PostgresStore keeps the document in screener.result_cache (row id=1)
// ⭐ SSOT: 결과 캐시 DB 저장/조회는 여기서만
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore migrates the schema and returns the store
func NewPostgresStore(ctx context.Context, db *database.DB) (*PostgresStore, error) {
	if err := db.Migrate(ctx, PostgresSchema...); err != nil {
		return nil, fmt.Errorf("migrate result cache: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.db.Pool.QueryRow(ctx, `SELECT payload FROM screener.result_cache WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query result cache: %w", err)
	}
	return data, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO screener.result_cache (id, payload)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`
	if _, err := s.db.Pool.Exec(ctx, query, data); err != nil {
		return fmt.Errorf("save result cache: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM screener.result_cache WHERE id = 1`); err != nil {
		return fmt.Errorf("delete result cache: %w", err)
	}
	return nil
}

// Close is a no-op; the pool is owned by the caller
func (s *PostgresStore) Close() error { return nil }
