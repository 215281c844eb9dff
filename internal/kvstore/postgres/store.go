package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avelane/cartwish/internal/kvstore"
)

// DB is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements kvstore.Store on a single kv_blobs table:
//
//	CREATE TABLE kv_blobs (
//	    key        TEXT PRIMARY KEY,
//	    value      JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Store struct {
	db DB
}

// NewStore creates a Postgres-backed blob store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the backing table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_blobs (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure kv_blobs schema: %w", err)
	}
	return nil
}

// Load returns the blob stored under key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_blobs WHERE key = $1`

	var value []byte
	if err := s.db.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kvstore.ErrNotFound
		}
		return nil, fmt.Errorf("load blob %s: %w", key, err)
	}
	return value, nil
}

// Save upserts the blob stored under key.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_blobs (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("save blob %s: %w", key, err)
	}
	return nil
}

// Remove deletes the key. Deleting an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	query := `DELETE FROM kv_blobs WHERE key = $1`

	if _, err := s.db.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("remove blob %s: %w", key, err)
	}
	return nil
}
