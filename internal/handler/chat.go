package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"remod3/internal/auth"
	"remod3/internal/chat"
	"remod3/internal/domain/repositories"
)

// ChatHandler upgrades live-channel connections and hands them to the hub.
// Authentication happens after the upgrade so the failure can be reported
// through a websocket close frame instead of a plain HTTP error the client
// library would swallow.
type ChatHandler struct {
	hub       *chat.Hub
	userRepo  repositories.UserRepository
	jwtSecret []byte
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	hub *chat.Hub,
	userRepo repositories.UserRepository,
	jwtSecret []byte,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		hub:       hub,
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the frontend origin; the bearer
			// token is the access control, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Connect upgrades the request and runs the session until disconnect
func (h *ChatHandler) Connect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	claims, err := auth.ParseToken(h.jwtSecret, r.URL.Query().Get("token"))
	if err != nil {
		h.closeWith(conn, websocket.ClosePolicyViolation, "authentication failed")
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), claims.Subject)
	if err != nil {
		h.closeWith(conn, websocket.ClosePolicyViolation, "unknown user")
		return
	}

	h.hub.Serve(r.Context(), conn, user)

	h.closeWith(conn, websocket.CloseNormalClosure, "")
}

func (h *ChatHandler) closeWith(conn *websocket.Conn, code int, reason string) {
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second),
	)
	conn.Close()
}
