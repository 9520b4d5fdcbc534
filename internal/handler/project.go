package handler

import (
	"log/slog"
	"net/http"

	"remod3/internal/httputil"
	"remod3/internal/service"
)

// ProjectHandler handles HTTP requests for projects
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// Create creates a new project
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := httputil.GetIdentity(r)
	if id == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req service.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projects.CreateProject(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// List returns all projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListProjects(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, projects)
}

// Get returns one project together with its file nodes
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetProjectTree(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, project)
}

// Update edits a project's name or description
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projects.UpdateProject(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// Delete removes a project and its whole file tree
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
