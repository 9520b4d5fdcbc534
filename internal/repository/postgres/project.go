package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.CreatedBy,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, description, created_by, created_at
		FROM %s WHERE id = $1
	`, r.tables.Projects)

	var project models.Project
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.CreatedBy,
		&project.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return &project, nil
}

// List retrieves all projects ordered by creation time
func (r *PostgresProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, description, created_by, created_at
		FROM %s ORDER BY created_at ASC
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&project.CreatedBy,
			&project.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// Update rewrites a project's name and description
func (r *PostgresProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, description = $2 WHERE id = $3
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, project.Name, project.Description, project.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a project
func (r *PostgresProjectRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
