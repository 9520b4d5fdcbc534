package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

// PostgresPasswordResetRepository implements the PasswordResetRepository interface
type PostgresPasswordResetRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(config *RepositoryConfig) repositories.PasswordResetRepository {
	return &PostgresPasswordResetRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create persists a new reset token
func (r *PostgresPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, code, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.PasswordResets)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		reset.ID,
		reset.UserID,
		reset.Code,
		reset.CreatedAt,
		reset.ExpiresAt,
		reset.Used,
	)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}

	return nil
}

// GetActiveByCode retrieves an unused reset token by its code
func (r *PostgresPasswordResetRepository) GetActiveByCode(ctx context.Context, code string) (*models.PasswordReset, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, code, created_at, expires_at, used
		FROM %s WHERE code = $1 AND used = FALSE
	`, r.tables.PasswordResets)

	var reset models.PasswordReset
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, code).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.Code,
		&reset.CreatedAt,
		&reset.ExpiresAt,
		&reset.Used,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("reset token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get password reset: %w", err)
	}

	return &reset, nil
}

// MarkUsed consumes a reset token
func (r *PostgresPasswordResetRepository) MarkUsed(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET used = TRUE WHERE id = $1`, r.tables.PasswordResets)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark reset used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("reset token %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// PostgresAdminResetRequestRepository implements the AdminResetRequestRepository interface
type PostgresAdminResetRequestRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewAdminResetRequestRepository creates a new admin reset request repository
func NewAdminResetRequestRepository(config *RepositoryConfig) repositories.AdminResetRequestRepository {
	return &PostgresAdminResetRequestRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create persists a new admin reset request
func (r *PostgresAdminResetRequestRepository) Create(ctx context.Context, req *models.AdminResetRequest) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, username, status, requested_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.ResetRequests)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		req.ID,
		req.UserID,
		req.Username,
		req.Status,
		req.RequestedAt,
		req.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create reset request: %w", err)
	}

	return nil
}

// ListPending retrieves reset requests awaiting an administrator
func (r *PostgresAdminResetRequestRepository) ListPending(ctx context.Context) ([]models.AdminResetRequest, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, username, status, requested_at, completed_at
		FROM %s WHERE status = $1
		ORDER BY requested_at ASC
	`, r.tables.ResetRequests)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, models.ResetRequestPending)
	if err != nil {
		return nil, fmt.Errorf("query reset requests: %w", err)
	}
	defer rows.Close()

	var requests []models.AdminResetRequest
	for rows.Next() {
		var req models.AdminResetRequest
		if err := rows.Scan(
			&req.ID,
			&req.UserID,
			&req.Username,
			&req.Status,
			&req.RequestedAt,
			&req.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reset request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reset requests: %w", err)
	}

	return requests, nil
}

// CompleteForUser marks every pending request of a user completed
func (r *PostgresAdminResetRequestRepository) CompleteForUser(ctx context.Context, userID string, completedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $1, completed_at = $2
		WHERE user_id = $3 AND status = $4
	`, r.tables.ResetRequests)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query,
		models.ResetRequestCompleted,
		completedAt,
		userID,
		models.ResetRequestPending,
	); err != nil {
		return fmt.Errorf("complete reset requests: %w", err)
	}

	return nil
}
