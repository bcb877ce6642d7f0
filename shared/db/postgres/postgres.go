// Package postgres opens the pgx connection pool used by the PostgreSQL post store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDatabaseURLNotSet is returned when DATABASE_URL is empty.
var ErrDatabaseURLNotSet = errors.New("DATABASE_URL environment variable is not set")

var schema = []string{`
	CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		image_url TEXT NOT NULL,
		creator_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at ASC)`,
}

// NewPool builds a pool from DATABASE_URL, pings it and ensures the posts schema.
// Callers own the returned pool and must Close it.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, ErrDatabaseURLNotSet
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("unable to ensure schema: %w", err)
		}
	}

	return pool, nil
}
