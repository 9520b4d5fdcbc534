package handler

import (
	"log/slog"
	"net/http"

	"remod3/internal/httputil"
	"remod3/internal/service"
)

// AuthHandler handles registration, login, and the password-reset endpoints
type AuthHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *service.AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// Register creates a new account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// Login exchanges credentials for a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Me returns the authenticated caller's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := httputil.GetIdentity(r)
	if id == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	user, err := h.accounts.GetUser(r.Context(), id.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// ChangePassword replaces the caller's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := httputil.GetIdentity(r)
	if id == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// RequestPasswordReset starts a reset flow. The response is identical whether
// or not the username exists.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), req.Username); err != nil {
		h.logger.Error("password reset request failed", "error", err)
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "if the account exists, a reset has been initiated",
	})
}

// VerifyResetCode checks a reset code before the new-password form is shown
func (h *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.RespondError(w, http.StatusBadRequest, "code query parameter is required")
		return
	}

	if err := h.accounts.VerifyResetCode(r.Context(), code); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}

// ConfirmPasswordReset consumes an emailed reset code
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.accounts.ConfirmPasswordReset(r.Context(), req.Code, req.NewPassword); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}
