package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

// historyLimit caps the backlog sent to a newly attached session.
const historyLimit = 50

// Event types on the server-to-client stream.
const (
	EventHistory    = "history"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventMessage    = "message"
)

// HistoryEvent delivers the recent backlog, oldest first.
type HistoryEvent struct {
	Type     string               `json:"type"`
	Messages []models.ChatMessage `json:"messages"`
}

// PresenceEvent announces a user joining or leaving.
type PresenceEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// MessageEvent broadcasts one persisted chat message.
type MessageEvent struct {
	Type string             `json:"type"`
	Data models.ChatMessage `json:"data"`
}

// Inbound is the single client-to-server frame.
type Inbound struct {
	Message string `json:"message"`
}

// Hub persists inbound chat messages and fans events out to every registered
// session. One Hub serves the whole process.
type Hub struct {
	registry *Registry
	chatRepo repositories.ChatMessageRepository
	logger   *slog.Logger
}

// NewHub creates a new broadcast hub
func NewHub(registry *Registry, chatRepo repositories.ChatMessageRepository, logger *slog.Logger) *Hub {
	return &Hub{
		registry: registry,
		chatRepo: chatRepo,
		logger:   logger,
	}
}

// Serve runs one session to completion: backlog, registration, join
// broadcast, then the inbound read loop. It returns when the connection
// closes or errors; closing the underlying channel is the caller's job.
// Cleanup is deferred so the unregister-and-announce path runs exactly once
// on every exit, and a duplicate close produces no second user_left.
func (h *Hub) Serve(ctx context.Context, conn Conn, user *models.User) {
	session := &Session{
		ID:       uuid.New().String(),
		Conn:     conn,
		UserID:   user.ID,
		Username: user.Username,
	}

	defer func() {
		if username, found := h.registry.Unregister(conn); found {
			h.Broadcast(&PresenceEvent{Type: EventUserLeft, Username: username})
		}
	}()

	if err := h.sendHistory(ctx, session); err != nil {
		h.logger.Warn("history send failed", "user", user.Username, "error", err)
		return
	}

	h.registry.Register(session)
	h.Broadcast(&PresenceEvent{Type: EventUserJoined, Username: user.Username})
	h.logger.Info("session attached", "user", user.Username, "sessions", h.registry.Len())

	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			h.logger.Info("session detached", "user", user.Username, "error", err)
			return
		}
		if in.Message == "" {
			continue
		}
		if err := h.Publish(ctx, session, in.Message); err != nil {
			h.logger.Error("publish failed", "user", user.Username, "error", err)
			return
		}
	}
}

// Publish persists a message under the session's authenticated identity and
// fans it out to every registered session, the sender included.
func (h *Hub) Publish(ctx context.Context, session *Session, text string) error {
	msg := &models.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    session.UserID,
		Username:  session.Username,
		Message:   text,
		Timestamp: time.Now(),
	}
	if err := h.chatRepo.Create(ctx, msg); err != nil {
		return err
	}

	h.Broadcast(&MessageEvent{Type: EventMessage, Data: *msg})
	return nil
}

// Broadcast sends one event to every registered session. A failed send never
// aborts the pass or reaches the caller; the broken sessions are dropped from
// the registry after the full pass.
func (h *Hub) Broadcast(event interface{}) {
	var failed []*Session
	for _, session := range h.registry.Snapshot() {
		if err := session.Send(event); err != nil {
			h.logger.Warn("broadcast send failed", "user", session.Username, "error", err)
			failed = append(failed, session)
		}
	}
	for _, session := range failed {
		h.registry.Unregister(session.Conn)
	}
}

// sendHistory delivers the most recent messages in chronological order.
// Storage returns them newest first, so the slice is reversed before sending.
func (h *Hub) sendHistory(ctx context.Context, session *Session) error {
	recent, err := h.chatRepo.ListRecent(ctx, historyLimit)
	if err != nil {
		return err
	}

	messages := make([]models.ChatMessage, len(recent))
	for i, msg := range recent {
		messages[len(recent)-1-i] = msg
	}

	return session.Send(&HistoryEvent{Type: EventHistory, Messages: messages})
}
