package domain

import (
	"time"

	"github.com/google/uuid"
)

// InitiativeStatus tracks where an initiative sits in its lifecycle.
type InitiativeStatus string

const (
	InitiativeStatusPlanning   InitiativeStatus = "planning"
	InitiativeStatusInProgress InitiativeStatus = "in_progress"
	InitiativeStatusCompleted  InitiativeStatus = "completed"
	InitiativeStatusOnHold     InitiativeStatus = "on_hold"
)

// IsValid reports whether the status is one of the known values.
func (s InitiativeStatus) IsValid() bool {
	switch s {
	case InitiativeStatusPlanning, InitiativeStatusInProgress, InitiativeStatusCompleted, InitiativeStatusOnHold:
		return true
	}
	return false
}

// Initiative is the middle level of the planning hierarchy. Matching is
// scoped to both the tenant and the parent objective: an initiative with
// an identical title under a different objective is a different record.
type Initiative struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       uuid.UUID        `json:"tenant_id"`
	ObjectiveID    uuid.UUID        `json:"objective_id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Status         InitiativeStatus `json:"status"`
	Progress       int              `json:"progress"`
	StartDate      *time.Time       `json:"start_date,omitempty"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	CompletionDate *time.Time       `json:"completion_date,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewInitiative creates an initiative under a parent objective.
func NewInitiative(tenantID, objectiveID uuid.UUID, title string) Initiative {
	now := time.Now()
	return Initiative{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ObjectiveID: objectiveID,
		Title:       title,
		Status:      InitiativeStatusPlanning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ObjectiveInitiativeLink associates an objective with an initiative.
// The (objective, initiative) pair is the natural unique key; relinking
// an existing pair is a no-op.
type ObjectiveInitiativeLink struct {
	ObjectiveID  uuid.UUID `json:"objective_id"`
	InitiativeID uuid.UUID `json:"initiative_id"`
	CreatedAt    time.Time `json:"created_at"`
}
