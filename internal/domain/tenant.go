package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents one organization's isolation boundary. Every lookup
// and write in the system is scoped to a tenant.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTenant creates a new tenant.
func NewTenant(name, description string) Tenant {
	now := time.Now()
	return Tenant{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
