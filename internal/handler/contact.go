package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"remod3/internal/email"
	"remod3/internal/httputil"
)

// ContactHandler forwards contact-form submissions by email
type ContactHandler struct {
	mailer *email.Service
	logger *slog.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(mailer *email.Service, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{mailer: mailer, logger: logger}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (c contactRequest) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Message, validation.Required, validation.Length(1, 5000)),
	)
}

// Submit accepts a contact-form message
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.mailer.IsConfigured() {
		httputil.RespondError(w, http.StatusServiceUnavailable, "contact form is not available")
		return
	}

	if err := h.mailer.SendContact(req.Name, req.Email, req.Message); err != nil {
		h.logger.Error("contact email failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "message sent"})
}
