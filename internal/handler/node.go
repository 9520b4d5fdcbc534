package handler

import (
	"log/slog"
	"net/http"

	"remod3/internal/domain/models"
	"remod3/internal/httputil"
	"remod3/internal/service"
)

// NodeHandler handles HTTP requests for file-tree nodes
type NodeHandler struct {
	nodes  *service.NodeService
	logger *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodes *service.NodeService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{nodes: nodes, logger: logger}
}

// Create creates a file or folder
func (h *NodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ProjectID = r.PathValue("id")

	node, err := h.nodes.CreateNode(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// Tree returns the nodes under a path prefix, ordered by path. Without a
// prefix it returns the whole project tree.
func (h *NodeHandler) Tree(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	prefix := r.URL.Query().Get("prefix")

	nodes, err := h.nodes.ListSubtree(r.Context(), projectID, prefix)
	if err != nil {
		handleError(w, err)
		return
	}

	if nodes == nil {
		nodes = []models.Node{}
	}
	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// Get returns one node
func (h *NodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	node, err := h.nodes.GetNode(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// Update edits a node's name, content, or file type
func (h *NodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.nodes.UpdateNode(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// Rename gives a node a new name
func (h *NodeHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.nodes.RenameNode(r.Context(), r.PathValue("id"), req.NewName)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// Move reparents a node under a new folder
func (h *NodeHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewParentPath string `json:"new_parent_path"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.nodes.MoveNode(r.Context(), r.PathValue("id"), req.NewParentPath)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// Delete removes a node, cascading over a folder's subtree
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.nodes.DeleteNode(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload stores a base64-encoded file body
func (h *NodeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req service.UploadFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ProjectID = r.PathValue("id")

	node, err := h.nodes.UploadFile(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}
