package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS social_accounts (
		id BIGSERIAL PRIMARY KEY,
		platform TEXT NOT NULL,
		account_id TEXT NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		token_expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (platform, account_id)
	)`,
	`CREATE TABLE IF NOT EXISTS scheduled_posts (
		id TEXT PRIMARY KEY,
		platforms TEXT[] NOT NULL,
		content TEXT NOT NULL,
		media_urls TEXT[],
		options JSONB NOT NULL DEFAULT '{}',
		access_tokens JSONB NOT NULL DEFAULT '{}',
		scheduled_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		results JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS scheduled_posts_due_idx ON scheduled_posts (status, scheduled_at)`,
}

// EnsureSchema creates the tables used by the Postgres repositories.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
