package models

import (
	"time"
)

// PasswordReset is a single-use, time-limited token letting a user set a new
// password through the emailed reset link.
type PasswordReset struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
}

// Statuses of an admin-handled reset request.
const (
	ResetRequestPending   = "pending"
	ResetRequestCompleted = "completed"
)

// AdminResetRequest tracks a user asking an administrator to reset their
// password out of band (for accounts without an email on file).
type AdminResetRequest struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Username    string     `json:"username" db:"username"`
	Status      string     `json:"status" db:"status"`
	RequestedAt time.Time  `json:"requested_at" db:"requested_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}
