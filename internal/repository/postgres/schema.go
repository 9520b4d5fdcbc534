package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates every table and index the server needs. Statements are
// idempotent so startup can run this unconditionally.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				email TEXT UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'user',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Users),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_by TEXT NOT NULL REFERENCES %s(id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Projects, tables.Users),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES %s(id),
				name TEXT NOT NULL,
				parent_path TEXT NOT NULL DEFAULT '',
				path TEXT NOT NULL,
				is_folder BOOLEAN NOT NULL DEFAULT FALSE,
				content TEXT NOT NULL DEFAULT '',
				file_type TEXT NOT NULL DEFAULT '',
				is_binary BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Nodes, tables.Projects),
		fmt.Sprintf(`
			CREATE UNIQUE INDEX IF NOT EXISTS %s_project_path_idx
			ON %s (project_id, path)`, tables.Nodes, tables.Nodes),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_parent_path_idx
			ON %s (project_id, parent_path)`, tables.Nodes, tables.Nodes),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES %s(id),
				username TEXT NOT NULL,
				message TEXT NOT NULL,
				timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.ChatMessages, tables.Users),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_timestamp_idx
			ON %s (timestamp DESC)`, tables.ChatMessages, tables.ChatMessages),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL,
				price TEXT NOT NULL,
				estimated_time TEXT NOT NULL,
				payment_methods TEXT NOT NULL,
				frameworks TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Services),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES %s(id),
				code TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				expires_at TIMESTAMPTZ NOT NULL,
				used BOOLEAN NOT NULL DEFAULT FALSE
			)`, tables.PasswordResets, tables.Users),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES %s(id),
				username TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				requested_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				completed_at TIMESTAMPTZ
			)`, tables.ResetRequests, tables.Users),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
