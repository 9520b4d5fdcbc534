package repositories

import (
	"context"

	"remod3/internal/domain/models"
)

// NodeRepository defines data access operations for file-tree nodes.
// All methods participate in a context transaction when one is present.
type NodeRepository interface {
	// Create inserts a new node
	Create(ctx context.Context, node *models.Node) error

	// GetByID retrieves a node by ID
	GetByID(ctx context.Context, id string) (*models.Node, error)

	// GetByPath retrieves the node occupying an exact path within a project
	GetByPath(ctx context.Context, projectID, path string) (*models.Node, error)

	// ListByProject retrieves every node of a project, ordered by path
	ListByProject(ctx context.Context, projectID string) ([]models.Node, error)

	// ListDescendants retrieves the proper descendants of a path, ordered by
	// path. The match is segment-boundary safe: only nodes whose path starts
	// with path + "/" qualify.
	ListDescendants(ctx context.Context, projectID, path string) ([]models.Node, error)

	// ListSubtree retrieves the node at prefix (if any) together with its
	// descendants, ordered by path. An empty prefix selects the whole project.
	ListSubtree(ctx context.Context, projectID, prefix string) ([]models.Node, error)

	// Update rewrites a node's mutable columns
	Update(ctx context.Context, node *models.Node) error

	// Delete removes a single node
	Delete(ctx context.Context, id string) error

	// DeleteDescendants removes every proper descendant of a path and reports
	// how many rows went away
	DeleteDescendants(ctx context.Context, projectID, path string) (int64, error)

	// DeleteByProject removes every node of a project
	DeleteByProject(ctx context.Context, projectID string) error

	// LockProject serializes structural mutations on a project for the
	// remainder of the current transaction. Must be called inside ExecTx.
	LockProject(ctx context.Context, projectID string) error
}
