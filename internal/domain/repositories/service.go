package repositories

import (
	"context"

	"remod3/internal/domain/models"
)

// ServiceRepository defines data access operations for catalog services
type ServiceRepository interface {
	Create(ctx context.Context, svc *models.Service) error
	GetByID(ctx context.Context, id string) (*models.Service, error)
	List(ctx context.Context) ([]models.Service, error)
	Update(ctx context.Context, svc *models.Service) error
	Delete(ctx context.Context, id string) error
}
