package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the minimal slice of a platform user the import engine
// needs: activity assignees are resolved by exact email match within a
// tenant.
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}
