package models

import (
	"time"
)

// ChatMessage is one persisted workspace chat message. Messages are
// append-only: they are never updated or individually deleted. Username is
// denormalized at write time from the authenticated session.
type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Message   string    `json:"message" db:"message"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
