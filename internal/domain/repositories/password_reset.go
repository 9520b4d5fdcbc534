package repositories

import (
	"context"
	"time"

	"remod3/internal/domain/models"
)

// PasswordResetRepository defines data access operations for reset tokens
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error

	// GetActiveByCode retrieves an unused reset token by its code.
	// Expiry is checked by the caller so it can distinguish the two failures.
	GetActiveByCode(ctx context.Context, code string) (*models.PasswordReset, error)

	MarkUsed(ctx context.Context, id string) error
}

// AdminResetRequestRepository defines data access operations for
// admin-handled reset requests
type AdminResetRequestRepository interface {
	Create(ctx context.Context, req *models.AdminResetRequest) error

	ListPending(ctx context.Context) ([]models.AdminResetRequest, error)

	// CompleteForUser marks every pending request of a user completed
	CompleteForUser(ctx context.Context, userID string, completedAt time.Time) error
}
