package repositories

import (
	"context"

	"remod3/internal/domain/models"
)

// ChatMessageRepository defines data access operations for chat messages
type ChatMessageRepository interface {
	// Create persists a new chat message
	Create(ctx context.Context, msg *models.ChatMessage) error

	// ListRecent retrieves the most recent messages, newest first
	ListRecent(ctx context.Context, limit int) ([]models.ChatMessage, error)
}
