package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity is the leaf level of the planning hierarchy. Activities live
// under an initiative; matching is scoped to the parent initiative only.
type Activity struct {
	ID           uuid.UUID  `json:"id"`
	InitiativeID uuid.UUID  `json:"initiative_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	IsCompleted  bool       `json:"is_completed"`
	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewActivity creates an activity under a parent initiative.
func NewActivity(initiativeID uuid.UUID, title string) Activity {
	now := time.Now()
	return Activity{
		ID:           uuid.New(),
		InitiativeID: initiativeID,
		Title:        title,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
