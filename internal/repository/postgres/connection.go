package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"remod3/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Users          string
	Projects       string
	Nodes          string
	ChatMessages   string
	Services       string
	PasswordResets string
	ResetRequests  string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Users:          fmt.Sprintf("%susers", prefix),
		Projects:       fmt.Sprintf("%sprojects", prefix),
		Nodes:          fmt.Sprintf("%snodes", prefix),
		ChatMessages:   fmt.Sprintf("%schat_messages", prefix),
		Services:       fmt.Sprintf("%sservices", prefix),
		PasswordResets: fmt.Sprintf("%spassword_resets", prefix),
		ResetRequests:  fmt.Sprintf("%sadmin_reset_requests", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool and verifies the
// database is reachable before returning it.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool. This enables repositories to
// automatically participate in transactions when they exist.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
