package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresBackend keeps every collection as one jsonb row, so several server
// processes can share a database and still serialize writers.
type PostgresBackend struct{ db *sql.DB }

func NewPostgresBackend(db *sql.DB) *PostgresBackend { return &PostgresBackend{db: db} }

// EnsureSchema creates the collections table if it is missing.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS collections (
		  name       TEXT PRIMARY KEY,
		  body       JSONB NOT NULL,
		  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func (b *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx, `SELECT body FROM collections WHERE name=$1`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (b *PostgresBackend) Write(ctx context.Context, name string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO collections (name, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()`,
		name, string(data))
	return err
}

// Lock takes a session-level advisory lock keyed by the collection name. The
// lock lives on a dedicated connection that is returned to the pool on unlock.
func (b *PostgresBackend) Lock(ctx context.Context, name string) (func(), error) {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, name); err != nil {
		conn.Close()
		return nil, fmt.Errorf("advisory lock %s: %w", name, err)
	}
	return func() {
		conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, name)
		conn.Close()
	}, nil
}
