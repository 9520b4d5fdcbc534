package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
	"remod3/internal/pathtree"
)

// NodeService applies structural mutations to a project's file tree. Every
// mutating operation runs inside one transaction, takes the project's
// advisory lock first, and re-reads the node after acquiring it, so two
// mutations on the same project can never interleave mid-cascade.
type NodeService struct {
	nodeRepo    repositories.NodeRepository
	projectRepo repositories.ProjectRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	nodeRepo repositories.NodeRepository,
	projectRepo repositories.ProjectRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *NodeService {
	return &NodeService{
		nodeRepo:    nodeRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateNodeRequest carries the inputs for creating a file or folder
type CreateNodeRequest struct {
	ProjectID  string `json:"project_id"`
	Name       string `json:"name"`
	ParentPath string `json:"parent_path"`
	IsFolder   bool   `json:"is_folder"`
	Content    string `json:"content"`
	FileType   string `json:"file_type"`
	IsBinary   bool   `json:"is_binary"`
}

// UpdateNodeRequest carries the mutable fields of a node. Nil means "leave
// unchanged"; a request with every field nil is rejected.
type UpdateNodeRequest struct {
	Name     *string `json:"name"`
	Content  *string `json:"content"`
	FileType *string `json:"file_type"`
}

// UploadFileRequest carries a base64-encoded file body
type UploadFileRequest struct {
	ProjectID  string `json:"project_id"`
	Name       string `json:"name"`
	ParentPath string `json:"parent_path"`
	Content    string `json:"content"`
}

func validateName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.Length(1, 255),
		validation.By(func(value interface{}) error {
			if strings.Contains(value.(string), "/") {
				return fmt.Errorf("name must not contain '/'")
			}
			return nil
		}),
	)
}

// CreateNode creates a file or folder at parent_path/name
func (s *NodeService) CreateNode(ctx context.Context, req *CreateNodeRequest) (*models.Node, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validateName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	node := &models.Node{
		ID:         uuid.New().String(),
		ProjectID:  req.ProjectID,
		Name:       req.Name,
		ParentPath: req.ParentPath,
		Path:       pathtree.Join(req.ParentPath, req.Name),
		IsFolder:   req.IsFolder,
		Content:    req.Content,
		FileType:   req.FileType,
		IsBinary:   req.IsBinary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockProject(txCtx, req.ProjectID); err != nil {
			return err
		}

		if _, err := s.projectRepo.GetByID(txCtx, req.ProjectID); err != nil {
			return err
		}

		if req.ParentPath != "" {
			parent, err := s.nodeRepo.GetByPath(txCtx, req.ProjectID, req.ParentPath)
			if err != nil {
				return fmt.Errorf("parent folder: %w", err)
			}
			if !parent.IsFolder {
				return fmt.Errorf("parent %q is a file: %w", req.ParentPath, domain.ErrValidation)
			}
		}

		if existing, err := s.nodeRepo.GetByPath(txCtx, req.ProjectID, node.Path); err == nil {
			return domain.PathConflict(node.Path, existing.ID)
		}

		return s.nodeRepo.Create(txCtx, node)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node created",
		"id", node.ID,
		"project_id", node.ProjectID,
		"path", node.Path,
		"is_folder", node.IsFolder,
	)

	return node, nil
}

// GetNode retrieves a node by ID
func (s *NodeService) GetNode(ctx context.Context, id string) (*models.Node, error) {
	return s.nodeRepo.GetByID(ctx, id)
}

// ListSubtree retrieves the nodes under a path prefix, ordered by path. An
// empty prefix lists the whole project.
func (s *NodeService) ListSubtree(ctx context.Context, projectID, prefix string) ([]models.Node, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.nodeRepo.ListSubtree(ctx, projectID, prefix)
}

// RenameNode gives a node a new name, keeping its parent. Renaming a folder
// rewrites the stored paths of every descendant in the same transaction.
func (s *NodeService) RenameNode(ctx context.Context, nodeID, newName string) (*models.Node, error) {
	if err := validateName(newName); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var renamed *models.Node
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		node, err := s.lockAndGet(txCtx, nodeID)
		if err != nil {
			return err
		}

		node.Name = newName
		n, err := s.relocate(txCtx, node, node.ParentPath)
		if err != nil {
			return err
		}
		renamed = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node renamed", "id", renamed.ID, "path", renamed.Path)
	return renamed, nil
}

// MoveNode reparents a node under a new folder. Moving a folder into its own
// subtree is rejected, as is moving onto an occupied path.
func (s *NodeService) MoveNode(ctx context.Context, nodeID, newParentPath string) (*models.Node, error) {
	var moved *models.Node
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		node, err := s.lockAndGet(txCtx, nodeID)
		if err != nil {
			return err
		}

		if newParentPath != "" {
			parent, err := s.nodeRepo.GetByPath(txCtx, node.ProjectID, newParentPath)
			if err != nil {
				return fmt.Errorf("destination folder: %w", err)
			}
			if !parent.IsFolder {
				return fmt.Errorf("destination %q is a file: %w", newParentPath, domain.ErrValidation)
			}
		}

		n, err := s.relocate(txCtx, node, newParentPath)
		if err != nil {
			return err
		}
		moved = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node moved", "id", moved.ID, "path", moved.Path)
	return moved, nil
}

// UpdateNode edits a node's name, content, or file type. A name change runs
// the full rename cascade so descendant paths never go stale.
func (s *NodeService) UpdateNode(ctx context.Context, nodeID string, req *UpdateNodeRequest) (*models.Node, error) {
	if req.Name == nil && req.Content == nil && req.FileType == nil {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	var updated *models.Node
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		node, err := s.lockAndGet(txCtx, nodeID)
		if err != nil {
			return err
		}

		if req.Content != nil {
			node.Content = *req.Content
		}
		if req.FileType != nil {
			node.FileType = *req.FileType
		}

		if req.Name != nil && *req.Name != node.Name {
			node.Name = *req.Name
			n, err := s.relocate(txCtx, node, node.ParentPath)
			if err != nil {
				return err
			}
			updated = n
			return nil
		}

		node.UpdatedAt = time.Now()
		if err := s.nodeRepo.Update(txCtx, node); err != nil {
			return err
		}
		updated = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node updated", "id", updated.ID, "path", updated.Path)
	return updated, nil
}

// DeleteNode removes a node. Deleting a folder removes its whole subtree in
// the same transaction, so a partially deleted subtree is never observable.
func (s *NodeService) DeleteNode(ctx context.Context, nodeID string) error {
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		node, err := s.lockAndGet(txCtx, nodeID)
		if err != nil {
			return err
		}

		if node.IsFolder {
			removed, err := s.nodeRepo.DeleteDescendants(txCtx, node.ProjectID, node.Path)
			if err != nil {
				return err
			}
			s.logger.Info("subtree deleted", "path", node.Path, "descendants", removed)
		}

		return s.nodeRepo.Delete(txCtx, node.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("node deleted", "id", nodeID)
	return nil
}

// UploadFile stores an uploaded file body. Known binary extensions keep the
// base64 form; for anything else the body is decoded and stored as text when
// it is valid UTF-8.
func (s *NodeService) UploadFile(ctx context.Context, req *UploadFileRequest) (*models.Node, error) {
	if err := validateName(req.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	content := req.Content
	isBinary := true
	ext := strings.ToLower(filepath.Ext(req.Name))
	if !binaryExtensions[ext] {
		if decoded, err := base64.StdEncoding.DecodeString(req.Content); err == nil && utf8.Valid(decoded) {
			content = string(decoded)
			isBinary = false
		}
	}

	return s.CreateNode(ctx, &CreateNodeRequest{
		ProjectID:  req.ProjectID,
		Name:       req.Name,
		ParentPath: req.ParentPath,
		IsFolder:   false,
		Content:    content,
		FileType:   strings.TrimPrefix(ext, "."),
		IsBinary:   isBinary,
	})
}

// lockAndGet takes the project advisory lock and returns the node's state as
// of after the lock, so the cascade works from a stable snapshot.
func (s *NodeService) lockAndGet(ctx context.Context, nodeID string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if err := s.nodeRepo.LockProject(ctx, node.ProjectID); err != nil {
		return nil, err
	}
	return s.nodeRepo.GetByID(ctx, nodeID)
}

// relocate writes node at its (possibly new) name under newParentPath and
// rewrites every descendant of the old path. Must run inside a transaction
// holding the project lock. The node's Name field carries the target name.
func (s *NodeService) relocate(ctx context.Context, node *models.Node, newParentPath string) (*models.Node, error) {
	oldPath := node.Path

	all, err := s.nodeRepo.ListByProject(ctx, node.ProjectID)
	if err != nil {
		return nil, err
	}
	occupied := make(map[string]string, len(all))
	for _, n := range all {
		occupied[n.Path] = n.ID
	}

	if err := pathtree.ValidateMove(node.ID, oldPath, node.Name, newParentPath, occupied); err != nil {
		return nil, err
	}

	now := time.Now()
	node.ParentPath = newParentPath
	node.Path = pathtree.Join(newParentPath, node.Name)
	node.UpdatedAt = now
	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}

	if node.IsFolder && node.Path != oldPath {
		for i := range all {
			desc := &all[i]
			if desc.ID == node.ID || !pathtree.IsDescendant(desc.Path, oldPath) {
				continue
			}
			desc.Path = pathtree.Rebase(desc.Path, oldPath, node.Path)
			desc.ParentPath = pathtree.Rebase(desc.ParentPath, oldPath, node.Path)
			desc.UpdatedAt = now
			if err := s.nodeRepo.Update(ctx, desc); err != nil {
				return nil, err
			}
		}
	}

	return node, nil
}

// binaryExtensions lists upload extensions always stored in base64 form.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".pdf": true, ".zip": true, ".tar": true,
	".gz": true, ".rar": true, ".7z": true, ".exe": true, ".dll": true,
	".so": true, ".bin": true, ".mp3": true, ".mp4": true, ".wav": true,
	".avi": true, ".mov": true, ".ttf": true, ".otf": true, ".woff": true,
	".woff2": true,
}
