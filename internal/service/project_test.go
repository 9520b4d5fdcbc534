package service

import (
	"context"
	"errors"
	"testing"

	"remod3/internal/domain"
)

func newTestProjectService(t *testing.T) (*ProjectService, *NodeService, *fakeNodeRepo) {
	t.Helper()
	nodeRepo := newFakeNodeRepo()
	projectRepo := newFakeProjectRepo()
	projects := NewProjectService(projectRepo, nodeRepo, fakeTxManager{}, testLogger())
	nodes := NewNodeService(nodeRepo, projectRepo, fakeTxManager{}, testLogger())
	return projects, nodes, nodeRepo
}

func TestProjectLifecycle(t *testing.T) {
	projects, nodes, nodeRepo := newTestProjectService(t)
	ctx := context.Background()

	created, err := projects.CreateProject(ctx, "u1", &CreateProjectRequest{Name: "site"})
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if created.CreatedBy != "u1" {
		t.Errorf("created_by = %q, want u1", created.CreatedBy)
	}

	folder, err := nodes.CreateNode(ctx, &CreateNodeRequest{
		ProjectID: created.ID, Name: "src", IsFolder: true,
	})
	if err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}
	if _, err := nodes.CreateNode(ctx, &CreateNodeRequest{
		ProjectID: created.ID, Name: "main.py", ParentPath: "src",
	}); err != nil {
		t.Fatalf("CreateNode failed: %v", err)
	}

	t.Run("tree includes nodes", func(t *testing.T) {
		tree, err := projects.GetProjectTree(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetProjectTree failed: %v", err)
		}
		if len(tree.Nodes) != 2 {
			t.Fatalf("tree has %d nodes, want 2", len(tree.Nodes))
		}
		if tree.Nodes[0].Path != "src" || tree.Nodes[1].Path != "src/main.py" {
			t.Errorf("tree order = %q, %q", tree.Nodes[0].Path, tree.Nodes[1].Path)
		}
	})

	t.Run("empty update rejected", func(t *testing.T) {
		_, err := projects.UpdateProject(ctx, created.ID, &UpdateProjectRequest{})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("empty update error = %v, want validation", err)
		}
	})

	t.Run("delete removes nodes too", func(t *testing.T) {
		if err := projects.DeleteProject(ctx, created.ID); err != nil {
			t.Fatalf("DeleteProject failed: %v", err)
		}
		if _, err := projects.GetProject(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("deleted project still readable: %v", err)
		}
		if _, err := nodeRepo.GetByID(ctx, folder.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("project nodes survived delete: %v", err)
		}
	})
}
