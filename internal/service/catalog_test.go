package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"remod3/internal/domain"
	"remod3/internal/domain/models"
)

type fakeServiceRepo struct {
	services map[string]*models.Service
}

func newFakeServiceRepo() *fakeServiceRepo {
	return &fakeServiceRepo{services: make(map[string]*models.Service)}
}

func (r *fakeServiceRepo) Create(ctx context.Context, svc *models.Service) error {
	copied := *svc
	r.services[svc.ID] = &copied
	return nil
}

func (r *fakeServiceRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, fmt.Errorf("service %s: %w", id, domain.ErrNotFound)
	}
	copied := *svc
	return &copied, nil
}

func (r *fakeServiceRepo) List(ctx context.Context) ([]models.Service, error) {
	var out []models.Service
	for _, svc := range r.services {
		out = append(out, *svc)
	}
	return out, nil
}

func (r *fakeServiceRepo) Update(ctx context.Context, svc *models.Service) error {
	if _, ok := r.services[svc.ID]; !ok {
		return fmt.Errorf("service %s: %w", svc.ID, domain.ErrNotFound)
	}
	copied := *svc
	r.services[svc.ID] = &copied
	return nil
}

func (r *fakeServiceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.services[id]; !ok {
		return fmt.Errorf("service %s: %w", id, domain.ErrNotFound)
	}
	delete(r.services, id)
	return nil
}

func TestCatalogCRUD(t *testing.T) {
	svc := NewCatalogService(newFakeServiceRepo(), testLogger())
	ctx := context.Background()

	created, err := svc.CreateService(ctx, &CreateServiceRequest{
		Name:        "Web application",
		Description: "Full-stack development",
		Price:       "from $500",
	})
	if err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	t.Run("empty update rejected", func(t *testing.T) {
		_, err := svc.UpdateService(ctx, created.ID, &UpdateServiceRequest{})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("empty update error = %v, want validation", err)
		}
	})

	t.Run("partial update", func(t *testing.T) {
		price := "from $600"
		updated, err := svc.UpdateService(ctx, created.ID, &UpdateServiceRequest{Price: &price})
		if err != nil {
			t.Fatalf("UpdateService failed: %v", err)
		}
		if updated.Price != price || updated.Name != created.Name {
			t.Errorf("updated entry = %#v", updated)
		}
	})

	t.Run("missing name rejected", func(t *testing.T) {
		_, err := svc.CreateService(ctx, &CreateServiceRequest{Description: "x"})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("missing name error = %v, want validation", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := svc.DeleteService(ctx, created.ID); err != nil {
			t.Fatalf("DeleteService failed: %v", err)
		}
		if _, err := svc.GetService(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("deleted entry still readable: %v", err)
		}
	})
}
