package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

// PostgresChatMessageRepository implements the ChatMessageRepository interface
type PostgresChatMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewChatMessageRepository creates a new chat message repository
func NewChatMessageRepository(config *RepositoryConfig) repositories.ChatMessageRepository {
	return &PostgresChatMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create persists a new chat message
func (r *PostgresChatMessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, username, message, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, msg.ID, msg.UserID, msg.Username, msg.Message, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recent messages, newest first
func (r *PostgresChatMessageRepository) ListRecent(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, username, message, timestamp
		FROM %s
		ORDER BY timestamp DESC
		LIMIT $1
	`, r.tables.ChatMessages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Username, &msg.Message, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return messages, nil
}
