package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

type fakeNodeRepo struct {
	nodes   map[string]*models.Node
	updates int
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{nodes: make(map[string]*models.Node)}
}

func (r *fakeNodeRepo) Create(ctx context.Context, node *models.Node) error {
	for _, n := range r.nodes {
		if n.ProjectID == node.ProjectID && n.Path == node.Path {
			return domain.PathConflict(node.Path, n.ID)
		}
	}
	copied := *node
	r.nodes[node.ID] = &copied
	return nil
}

func (r *fakeNodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	copied := *n
	return &copied, nil
}

func (r *fakeNodeRepo) GetByPath(ctx context.Context, projectID, path string) (*models.Node, error) {
	for _, n := range r.nodes {
		if n.ProjectID == projectID && n.Path == path {
			copied := *n
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("node at path %q: %w", path, domain.ErrNotFound)
}

func (r *fakeNodeRepo) ListByProject(ctx context.Context, projectID string) ([]models.Node, error) {
	var out []models.Node
	for _, n := range r.nodes {
		if n.ProjectID == projectID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *fakeNodeRepo) ListDescendants(ctx context.Context, projectID, path string) ([]models.Node, error) {
	all, _ := r.ListByProject(ctx, projectID)
	var out []models.Node
	for _, n := range all {
		if len(n.Path) > len(path)+1 && n.Path[:len(path)+1] == path+"/" {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNodeRepo) ListSubtree(ctx context.Context, projectID, prefix string) ([]models.Node, error) {
	if prefix == "" {
		return r.ListByProject(ctx, projectID)
	}
	all, _ := r.ListByProject(ctx, projectID)
	var out []models.Node
	for _, n := range all {
		if n.Path == prefix || (len(n.Path) > len(prefix)+1 && n.Path[:len(prefix)+1] == prefix+"/") {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNodeRepo) Update(ctx context.Context, node *models.Node) error {
	r.updates++
	if _, ok := r.nodes[node.ID]; !ok {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	for _, n := range r.nodes {
		if n.ID != node.ID && n.ProjectID == node.ProjectID && n.Path == node.Path {
			return domain.PathConflict(node.Path, n.ID)
		}
	}
	copied := *node
	r.nodes[node.ID] = &copied
	return nil
}

func (r *fakeNodeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	delete(r.nodes, id)
	return nil
}

func (r *fakeNodeRepo) DeleteDescendants(ctx context.Context, projectID, path string) (int64, error) {
	descendants, _ := r.ListDescendants(ctx, projectID, path)
	for _, d := range descendants {
		delete(r.nodes, d.ID)
	}
	return int64(len(descendants)), nil
}

func (r *fakeNodeRepo) DeleteByProject(ctx context.Context, projectID string) error {
	for id, n := range r.nodes {
		if n.ProjectID == projectID {
			delete(r.nodes, id)
		}
	}
	return nil
}

func (r *fakeNodeRepo) LockProject(ctx context.Context, projectID string) error {
	return nil
}

type fakeProjectRepo struct {
	projects map[string]*models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*models.Project)}
}

func (r *fakeProjectRepo) Create(ctx context.Context, p *models.Project) error {
	copied := *p
	r.projects[p.ID] = &copied
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	for _, p := range r.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, p *models.Project) error {
	if _, ok := r.projects[p.ID]; !ok {
		return fmt.Errorf("project %s: %w", p.ID, domain.ErrNotFound)
	}
	copied := *p
	r.projects[p.ID] = &copied
	return nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	delete(r.projects, id)
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNodeService(t *testing.T) (*NodeService, *fakeNodeRepo, string) {
	t.Helper()
	nodeRepo := newFakeNodeRepo()
	projectRepo := newFakeProjectRepo()
	projectID := "proj-1"
	projectRepo.projects[projectID] = &models.Project{ID: projectID, Name: "test", CreatedAt: time.Now()}
	svc := NewNodeService(nodeRepo, projectRepo, fakeTxManager{}, testLogger())
	return svc, nodeRepo, projectID
}

func mustCreate(t *testing.T, svc *NodeService, projectID, name, parentPath string, isFolder bool) *models.Node {
	t.Helper()
	node, err := svc.CreateNode(context.Background(), &CreateNodeRequest{
		ProjectID:  projectID,
		Name:       name,
		ParentPath: parentPath,
		IsFolder:   isFolder,
	})
	if err != nil {
		t.Fatalf("CreateNode(%q under %q) failed: %v", name, parentPath, err)
	}
	return node
}

func TestCreateNode(t *testing.T) {
	svc, _, projectID := newTestNodeService(t)
	ctx := context.Background()

	folder := mustCreate(t, svc, projectID, "src", "", true)
	if folder.Path != "src" {
		t.Errorf("root folder path = %q, want %q", folder.Path, "src")
	}

	file := mustCreate(t, svc, projectID, "main.py", "src", false)
	if file.Path != "src/main.py" || file.ParentPath != "src" {
		t.Errorf("nested file path = %q parent = %q, want src/main.py under src", file.Path, file.ParentPath)
	}

	t.Run("duplicate path", func(t *testing.T) {
		_, err := svc.CreateNode(ctx, &CreateNodeRequest{
			ProjectID: projectID, Name: "main.py", ParentPath: "src",
		})
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("duplicate create error = %v, want conflict", err)
		}
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := svc.CreateNode(ctx, &CreateNodeRequest{
			ProjectID: projectID, Name: "x.py", ParentPath: "nope",
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("missing parent error = %v, want not found", err)
		}
	})

	t.Run("file as parent", func(t *testing.T) {
		_, err := svc.CreateNode(ctx, &CreateNodeRequest{
			ProjectID: projectID, Name: "x.py", ParentPath: "src/main.py",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("file parent error = %v, want validation", err)
		}
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := svc.CreateNode(ctx, &CreateNodeRequest{
			ProjectID: "ghost", Name: "x.py",
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("missing project error = %v, want not found", err)
		}
	})

	t.Run("slash in name", func(t *testing.T) {
		_, err := svc.CreateNode(ctx, &CreateNodeRequest{
			ProjectID: projectID, Name: "a/b",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("slash name error = %v, want validation", err)
		}
	})
}

func TestRenameFolderCascades(t *testing.T) {
	svc, repo, projectID := newTestNodeService(t)
	ctx := context.Background()

	src := mustCreate(t, svc, projectID, "src", "", true)
	file := mustCreate(t, svc, projectID, "main.py", "src", false)
	// Sibling whose name shares a prefix must not be touched by the cascade.
	src2 := mustCreate(t, svc, projectID, "src2", "", true)
	guard := mustCreate(t, svc, projectID, "x.py", "src2", false)

	renamed, err := svc.RenameNode(ctx, src.ID, "lib")
	if err != nil {
		t.Fatalf("RenameNode failed: %v", err)
	}
	if renamed.Path != "lib" {
		t.Errorf("renamed path = %q, want %q", renamed.Path, "lib")
	}

	got, _ := repo.GetByID(ctx, file.ID)
	if got.Path != "lib/main.py" || got.ParentPath != "lib" {
		t.Errorf("descendant = %q under %q, want lib/main.py under lib", got.Path, got.ParentPath)
	}

	for _, id := range []string{src2.ID, guard.ID} {
		got, _ := repo.GetByID(ctx, id)
		if got.Path != "src2" && got.Path != "src2/x.py" {
			t.Errorf("prefix sibling was rewritten to %q", got.Path)
		}
	}
}

func TestRenameConflict(t *testing.T) {
	svc, repo, projectID := newTestNodeService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, projectID, "a.py", "", false)
	mustCreate(t, svc, projectID, "b.py", "", false)

	_, err := svc.RenameNode(ctx, a.ID, "b.py")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("rename onto occupied path error = %v, want conflict", err)
	}

	got, _ := repo.GetByID(ctx, a.ID)
	if got.Path != "a.py" {
		t.Errorf("failed rename mutated node to %q", got.Path)
	}
}

func TestMoveNode(t *testing.T) {
	svc, repo, projectID := newTestNodeService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, projectID, "a", "", true)
	mustCreate(t, svc, projectID, "b", "", true)
	file := mustCreate(t, svc, projectID, "x.py", "a", false)

	moved, err := svc.MoveNode(ctx, a.ID, "b")
	if err != nil {
		t.Fatalf("MoveNode failed: %v", err)
	}
	if moved.Path != "b/a" || moved.ParentPath != "b" {
		t.Errorf("moved folder = %q under %q, want b/a under b", moved.Path, moved.ParentPath)
	}

	got, _ := repo.GetByID(ctx, file.ID)
	if got.Path != "b/a/x.py" || got.ParentPath != "b/a" {
		t.Errorf("descendant = %q under %q, want b/a/x.py under b/a", got.Path, got.ParentPath)
	}
}

func TestMoveCycleRejected(t *testing.T) {
	svc, repo, projectID := newTestNodeService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, projectID, "a", "", true)
	child := mustCreate(t, svc, projectID, "child", "a", true)

	_, err := svc.MoveNode(ctx, a.ID, "a/child")
	if !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("cyclic move error = %v, want cycle", err)
	}

	gotA, _ := repo.GetByID(ctx, a.ID)
	gotChild, _ := repo.GetByID(ctx, child.ID)
	if gotA.Path != "a" || gotChild.Path != "a/child" {
		t.Errorf("failed move mutated tree: %q, %q", gotA.Path, gotChild.Path)
	}
}

func TestMoveToMissingDestination(t *testing.T) {
	svc, _, projectID := newTestNodeService(t)

	a := mustCreate(t, svc, projectID, "a", "", true)

	_, err := svc.MoveNode(context.Background(), a.ID, "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("move to missing folder error = %v, want not found", err)
	}
}

func TestDeleteCascade(t *testing.T) {
	svc, repo, projectID := newTestNodeService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, projectID, "a", "", true)
	x := mustCreate(t, svc, projectID, "x.py", "a", false)
	sub := mustCreate(t, svc, projectID, "sub", "a", true)
	y := mustCreate(t, svc, projectID, "y.py", "a/sub", false)
	keep := mustCreate(t, svc, projectID, "keep.py", "", false)

	if err := svc.DeleteNode(ctx, a.ID); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}

	for _, id := range []string{a.ID, x.ID, sub.ID, y.ID} {
		if _, err := repo.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("node %s survived folder delete", id)
		}
	}
	if _, err := repo.GetByID(ctx, keep.ID); err != nil {
		t.Errorf("unrelated node was deleted: %v", err)
	}
}

func TestDeleteSingleFile(t *testing.T) {
	svc, repo, projectID := newTestNodeService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, projectID, "a", "", true)
	x := mustCreate(t, svc, projectID, "x.py", "a", false)

	if err := svc.DeleteNode(ctx, x.ID); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, a.ID); err != nil {
		t.Errorf("parent folder deleted with file: %v", err)
	}
}

func TestUpdateNode(t *testing.T) {
	svc, repo, projectID := newTestNodeService(t)
	ctx := context.Background()

	t.Run("empty payload", func(t *testing.T) {
		file := mustCreate(t, svc, projectID, "a.py", "", false)
		_, err := svc.UpdateNode(ctx, file.ID, &UpdateNodeRequest{})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("empty update error = %v, want validation", err)
		}
	})

	t.Run("content only", func(t *testing.T) {
		file := mustCreate(t, svc, projectID, "b.py", "", false)
		content := "print(1)"
		updated, err := svc.UpdateNode(ctx, file.ID, &UpdateNodeRequest{Content: &content})
		if err != nil {
			t.Fatalf("UpdateNode failed: %v", err)
		}
		if updated.Content != content || updated.Path != "b.py" {
			t.Errorf("update result = %q at %q", updated.Content, updated.Path)
		}
	})

	t.Run("rename via update cascades", func(t *testing.T) {
		folder := mustCreate(t, svc, projectID, "pkg", "", true)
		inner := mustCreate(t, svc, projectID, "mod.py", "pkg", false)

		name := "pkg2"
		updated, err := svc.UpdateNode(ctx, folder.ID, &UpdateNodeRequest{Name: &name})
		if err != nil {
			t.Fatalf("UpdateNode failed: %v", err)
		}
		if updated.Path != "pkg2" {
			t.Errorf("updated folder path = %q, want pkg2", updated.Path)
		}
		got, _ := repo.GetByID(ctx, inner.ID)
		if got.Path != "pkg2/mod.py" {
			t.Errorf("descendant path = %q, want pkg2/mod.py", got.Path)
		}
	})
}

func TestListSubtree(t *testing.T) {
	svc, _, projectID := newTestNodeService(t)
	ctx := context.Background()

	mustCreate(t, svc, projectID, "a", "", true)
	mustCreate(t, svc, projectID, "x.py", "a", false)
	mustCreate(t, svc, projectID, "b.py", "", false)

	nodes, err := svc.ListSubtree(ctx, projectID, "a")
	if err != nil {
		t.Fatalf("ListSubtree failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("subtree size = %d, want 2", len(nodes))
	}
	if nodes[0].Path != "a" || nodes[1].Path != "a/x.py" {
		t.Errorf("subtree order = %q, %q", nodes[0].Path, nodes[1].Path)
	}

	all, err := svc.ListSubtree(ctx, projectID, "")
	if err != nil {
		t.Fatalf("ListSubtree(all) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("full tree size = %d, want 3", len(all))
	}
}

func TestUploadFile(t *testing.T) {
	svc, repo, projectID := newTestNodeService(t)
	ctx := context.Background()

	t.Run("text file decodes", func(t *testing.T) {
		node, err := svc.UploadFile(ctx, &UploadFileRequest{
			ProjectID: projectID,
			Name:      "hello.txt",
			Content:   "aGVsbG8=", // "hello"
		})
		if err != nil {
			t.Fatalf("UploadFile failed: %v", err)
		}
		if node.IsBinary || node.Content != "hello" {
			t.Errorf("text upload: binary=%v content=%q", node.IsBinary, node.Content)
		}
		if node.FileType != "txt" {
			t.Errorf("file type = %q, want txt", node.FileType)
		}
	})

	t.Run("binary extension stays encoded", func(t *testing.T) {
		updatesBefore := repo.updates
		node, err := svc.UploadFile(ctx, &UploadFileRequest{
			ProjectID: projectID,
			Name:      "logo.png",
			Content:   "aGVsbG8=",
		})
		if err != nil {
			t.Fatalf("UploadFile failed: %v", err)
		}
		if !node.IsBinary || node.Content != "aGVsbG8=" {
			t.Errorf("binary upload: binary=%v content=%q", node.IsBinary, node.Content)
		}

		// The binary flag must land with the insert itself, not a follow-up
		// write that could fail and leave the flag unset.
		stored, err := repo.GetByID(ctx, node.ID)
		if err != nil {
			t.Fatalf("stored node unreadable: %v", err)
		}
		if !stored.IsBinary {
			t.Error("stored node is_binary = false, want true")
		}
		if repo.updates != updatesBefore {
			t.Errorf("upload issued %d extra update(s), want 0", repo.updates-updatesBefore)
		}
	})
}
