package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

// CatalogService manages the public catalog of service offerings
type CatalogService struct {
	serviceRepo repositories.ServiceRepository
	logger      *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(serviceRepo repositories.ServiceRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{serviceRepo: serviceRepo, logger: logger}
}

// CreateServiceRequest carries the inputs for a new catalog entry
type CreateServiceRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	EstimatedTime  string `json:"estimated_time"`
	PaymentMethods string `json:"payment_methods"`
	Frameworks     string `json:"frameworks"`
}

// UpdateServiceRequest carries the mutable fields of a catalog entry
type UpdateServiceRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Price          *string `json:"price"`
	EstimatedTime  *string `json:"estimated_time"`
	PaymentMethods *string `json:"payment_methods"`
	Frameworks     *string `json:"frameworks"`
}

// CreateService adds a new catalog entry
func (s *CatalogService) CreateService(ctx context.Context, req *CreateServiceRequest) (*models.Service, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Description, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	svc := &models.Service{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		EstimatedTime:  req.EstimatedTime,
		PaymentMethods: req.PaymentMethods,
		Frameworks:     req.Frameworks,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, err
	}

	s.logger.Info("service created", "id", svc.ID, "name", svc.Name)
	return svc, nil
}

// GetService retrieves a catalog entry by ID
func (s *CatalogService) GetService(ctx context.Context, id string) (*models.Service, error) {
	return s.serviceRepo.GetByID(ctx, id)
}

// ListServices retrieves the whole catalog
func (s *CatalogService) ListServices(ctx context.Context) ([]models.Service, error) {
	return s.serviceRepo.List(ctx)
}

// UpdateService edits a catalog entry. An empty payload is rejected.
func (s *CatalogService) UpdateService(ctx context.Context, id string, req *UpdateServiceRequest) (*models.Service, error) {
	if req.Name == nil && req.Description == nil && req.Price == nil &&
		req.EstimatedTime == nil && req.PaymentMethods == nil && req.Frameworks == nil {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}

	svc, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.EstimatedTime != nil {
		svc.EstimatedTime = *req.EstimatedTime
	}
	if req.PaymentMethods != nil {
		svc.PaymentMethods = *req.PaymentMethods
	}
	if req.Frameworks != nil {
		svc.Frameworks = *req.Frameworks
	}
	svc.UpdatedAt = time.Now()

	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, err
	}

	s.logger.Info("service updated", "id", svc.ID)
	return svc, nil
}

// DeleteService removes a catalog entry
func (s *CatalogService) DeleteService(ctx context.Context, id string) error {
	if err := s.serviceRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("service deleted", "id", id)
	return nil
}
