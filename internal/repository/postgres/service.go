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

// PostgresServiceRepository implements the ServiceRepository interface
type PostgresServiceRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewServiceRepository creates a new service repository
func NewServiceRepository(config *RepositoryConfig) repositories.ServiceRepository {
	return &PostgresServiceRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const serviceColumns = "id, name, description, price, estimated_time, payment_methods, frameworks, created_at, updated_at"

func scanService(row pgx.Row, svc *models.Service) error {
	return row.Scan(
		&svc.ID,
		&svc.Name,
		&svc.Description,
		&svc.Price,
		&svc.EstimatedTime,
		&svc.PaymentMethods,
		&svc.Frameworks,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
}

// Create inserts a new catalog service
func (r *PostgresServiceRepository) Create(ctx context.Context, svc *models.Service) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Services, serviceColumns)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		svc.ID,
		svc.Name,
		svc.Description,
		svc.Price,
		svc.EstimatedTime,
		svc.PaymentMethods,
		svc.Frameworks,
		svc.CreatedAt,
		svc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	return nil
}

// GetByID retrieves a service by ID
func (r *PostgresServiceRepository) GetByID(ctx context.Context, id string) (*models.Service, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, serviceColumns, r.tables.Services)

	var svc models.Service
	executor := GetExecutor(ctx, r.pool)
	if err := scanService(executor.QueryRow(ctx, query, id), &svc); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("service %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get service: %w", err)
	}

	return &svc, nil
}

// List retrieves all catalog services ordered by creation time
func (r *PostgresServiceRepository) List(ctx context.Context) ([]models.Service, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at ASC`, serviceColumns, r.tables.Services)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var svc models.Service
		if err := scanService(rows, &svc); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return services, nil
}

// Update rewrites a service's mutable columns
func (r *PostgresServiceRepository) Update(ctx context.Context, svc *models.Service) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, price = $3, estimated_time = $4, payment_methods = $5, frameworks = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Services)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		svc.Name,
		svc.Description,
		svc.Price,
		svc.EstimatedTime,
		svc.PaymentMethods,
		svc.Frameworks,
		svc.UpdatedAt,
		svc.ID,
	)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("service %s: %w", svc.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a service
func (r *PostgresServiceRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Services)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("service %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
