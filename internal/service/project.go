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

// ProjectService manages the project records that own file trees
type ProjectService struct {
	projectRepo repositories.ProjectRepository
	nodeRepo    repositories.NodeRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		nodeRepo:    nodeRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateProjectRequest carries the inputs for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectRequest carries the mutable fields of a project
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CreateProject creates a new project owned by the given user
func (s *ProjectService) CreateProject(ctx context.Context, userID string, req *CreateProjectRequest) (*models.Project, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	project := &models.Project{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created", "id", project.ID, "name", project.Name, "created_by", userID)
	return project, nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// ProjectTree is a project together with its file nodes, ordered by path
type ProjectTree struct {
	models.Project
	Nodes []models.Node `json:"nodes"`
}

// GetProjectTree retrieves a project with its whole file tree
func (s *ProjectService) GetProjectTree(ctx context.Context, id string) (*ProjectTree, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nodes, err := s.nodeRepo.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []models.Node{}
	}

	return &ProjectTree{Project: *project, Nodes: nodes}, nil
}

// ListProjects retrieves all projects
func (s *ProjectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.projectRepo.List(ctx)
}

// UpdateProject edits a project's name or description
func (s *ProjectService) UpdateProject(ctx context.Context, id string, req *UpdateProjectRequest) (*models.Project, error) {
	if req.Name == nil && req.Description == nil {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
		}
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project updated", "id", project.ID)
	return project, nil
}

// DeleteProject removes a project together with its whole file tree in one
// transaction.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockProject(txCtx, id); err != nil {
			return err
		}
		if err := s.nodeRepo.DeleteByProject(txCtx, id); err != nil {
			return err
		}
		return s.projectRepo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("project deleted", "id", id)
	return nil
}
