package handler

import (
	"log/slog"
	"net/http"

	"remod3/internal/httputil"
	"remod3/internal/service"
)

// AdminHandler handles user administration endpoints
type AdminHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(accounts *service.AccountService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, logger: logger}
}

// ListUsers returns every account
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, users)
}

// UpdateUserRole promotes or demotes an account
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var req struct {
		Role string `json:"role"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.accounts.UpdateUserRole(r.Context(), userID, req.Role)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// ListResetRequests returns the reset requests awaiting an administrator
func (h *AdminHandler) ListResetRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.accounts.ListResetRequests(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, requests)
}

// ResetUserPassword generates a new password for a user and returns the
// plaintext once, for the admin to hand over out of band.
func (h *AdminHandler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	password, err := h.accounts.AdminResetPassword(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"new_password": password})
}
