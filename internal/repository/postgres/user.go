package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const userColumns = "id, username, email, password_hash, role, created_at"

func scanUser(row pgx.Row, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
}

// Create inserts a new user account
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Users, userColumns)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("username %q is taken", user.Username),
				ResourceType: "user",
			}
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.tables.Users)
	return r.getOne(ctx, query, id)
}

// GetByUsername retrieves a user by username
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE username = $1`, userColumns, r.tables.Users)
	return r.getOne(ctx, query, username)
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1`, userColumns, r.tables.Users)
	return r.getOne(ctx, query, email)
}

// List retrieves all users ordered by creation time
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at ASC`, userColumns, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// UpdatePassword replaces a user's password hash
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET password_hash = $1 WHERE id = $2`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateRole replaces a user's role
func (r *PostgresUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	query := fmt.Sprintf(`UPDATE %s SET role = $1 WHERE id = $2`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, role, id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	executor := GetExecutor(ctx, r.pool)
	if err := scanUser(executor.QueryRow(ctx, query, arg), &user); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}
