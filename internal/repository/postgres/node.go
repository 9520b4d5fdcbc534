package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const nodeColumns = "id, project_id, name, parent_path, path, is_folder, content, file_type, is_binary, created_at, updated_at"

func scanNode(row pgx.Row, node *models.Node) error {
	return row.Scan(
		&node.ID,
		&node.ProjectID,
		&node.Name,
		&node.ParentPath,
		&node.Path,
		&node.IsFolder,
		&node.Content,
		&node.FileType,
		&node.IsBinary,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
}

// Create inserts a new node
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.tables.Nodes, nodeColumns)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		node.ID,
		node.ProjectID,
		node.Name,
		node.ParentPath,
		node.Path,
		node.IsFolder,
		node.Content,
		node.FileType,
		node.IsBinary,
		node.CreatedAt,
		node.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return domain.PathConflict(node.Path, "")
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, nodeColumns, r.tables.Nodes)

	var node models.Node
	executor := GetExecutor(ctx, r.pool)
	if err := scanNode(executor.QueryRow(ctx, query, id), &node); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// GetByPath retrieves the node occupying an exact path within a project
func (r *PostgresNodeRepository) GetByPath(ctx context.Context, projectID, path string) (*models.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE project_id = $1 AND path = $2`, nodeColumns, r.tables.Nodes)

	var node models.Node
	executor := GetExecutor(ctx, r.pool)
	if err := scanNode(executor.QueryRow(ctx, query, projectID, path), &node); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node at path %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node by path: %w", err)
	}

	return &node, nil
}

// ListByProject retrieves every node of a project, ordered by path
func (r *PostgresNodeRepository) ListByProject(ctx context.Context, projectID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1
		ORDER BY path ASC
	`, nodeColumns, r.tables.Nodes)

	return r.queryNodes(ctx, query, projectID)
}

// ListDescendants retrieves the proper descendants of a path, ordered by path.
// The LIKE pattern is anchored on path + "/" so siblings whose names merely
// share a prefix never match.
func (r *PostgresNodeRepository) ListDescendants(ctx context.Context, projectID, path string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND path LIKE $2
		ORDER BY path ASC
	`, nodeColumns, r.tables.Nodes)

	return r.queryNodes(ctx, query, projectID, escapeLike(path)+"/%")
}

// ListSubtree retrieves the node at prefix together with its descendants.
// An empty prefix selects the whole project.
func (r *PostgresNodeRepository) ListSubtree(ctx context.Context, projectID, prefix string) ([]models.Node, error) {
	if prefix == "" {
		return r.ListByProject(ctx, projectID)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND (path = $2 OR path LIKE $3)
		ORDER BY path ASC
	`, nodeColumns, r.tables.Nodes)

	return r.queryNodes(ctx, query, projectID, prefix, escapeLike(prefix)+"/%")
}

// Update rewrites a node's mutable columns
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, parent_path = $2, path = $3, content = $4, file_type = $5, is_binary = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		node.Name,
		node.ParentPath,
		node.Path,
		node.Content,
		node.FileType,
		node.IsBinary,
		node.UpdatedAt,
		node.ID,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return domain.PathConflict(node.Path, "")
		}
		return fmt.Errorf("update node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a single node
func (r *PostgresNodeRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteDescendants removes every proper descendant of a path
func (r *PostgresNodeRepository) DeleteDescendants(ctx context.Context, projectID, path string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE project_id = $1 AND path LIKE $2`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, projectID, escapeLike(path)+"/%")
	if err != nil {
		return 0, fmt.Errorf("delete descendants: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteByProject removes every node of a project
func (r *PostgresNodeRepository) DeleteByProject(ctx context.Context, projectID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE project_id = $1`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, projectID); err != nil {
		return fmt.Errorf("delete project nodes: %w", err)
	}

	return nil
}

// LockProject takes a transaction-scoped advisory lock keyed on the project
// id. Structural mutations on the same project queue behind it, so a rename
// and a concurrent move of an overlapping subtree can never interleave.
func (r *PostgresNodeRepository) LockProject(ctx context.Context, projectID string) error {
	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, projectID); err != nil {
		return fmt.Errorf("lock project: %w", err)
	}
	return nil
}

func (r *PostgresNodeRepository) queryNodes(ctx context.Context, query string, args ...interface{}) ([]models.Node, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		if err := scanNode(rows, &node); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

// escapeLike neutralizes LIKE wildcards inside a literal path prefix.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
