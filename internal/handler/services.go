package handler

import (
	"log/slog"
	"net/http"

	"remod3/internal/httputil"
	"remod3/internal/service"
)

// ServicesHandler handles HTTP requests for the public service catalog
type ServicesHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewServicesHandler creates a new services handler
func NewServicesHandler(catalog *service.CatalogService, logger *slog.Logger) *ServicesHandler {
	return &ServicesHandler{catalog: catalog, logger: logger}
}

// List returns the whole catalog
func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, services)
}

// Get returns one catalog entry
func (h *ServicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, svc)
}

// Create adds a catalog entry
func (h *ServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateServiceRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	svc, err := h.catalog.CreateService(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, svc)
}

// Update edits a catalog entry
func (h *ServicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateServiceRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	svc, err := h.catalog.UpdateService(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, svc)
}

// Delete removes a catalog entry
func (h *ServicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteService(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
