package models

import (
	"time"
)

// Service is a catalog entry describing a development service offering.
type Service struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	Price          string    `json:"price" db:"price"`
	EstimatedTime  string    `json:"estimated_time" db:"estimated_time"`
	PaymentMethods string    `json:"payment_methods" db:"payment_methods"`
	Frameworks     string    `json:"frameworks" db:"frameworks"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
