package domain

import (
	"time"

	"github.com/google/uuid"
)

// Priority is the objective priority scale used across the platform.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid reports whether the priority is one of the known values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ObjectiveStatus tracks where an objective sits in its lifecycle.
type ObjectiveStatus string

const (
	ObjectiveStatusPlanning   ObjectiveStatus = "planning"
	ObjectiveStatusInProgress ObjectiveStatus = "in_progress"
	ObjectiveStatusCompleted  ObjectiveStatus = "completed"
	ObjectiveStatusOverdue    ObjectiveStatus = "overdue"
)

// IsValid reports whether the status is one of the known values.
func (s ObjectiveStatus) IsValid() bool {
	switch s {
	case ObjectiveStatusPlanning, ObjectiveStatusInProgress, ObjectiveStatusCompleted, ObjectiveStatusOverdue:
		return true
	}
	return false
}

// Objective is the top level of the planning hierarchy. Its title is the
// natural key: within one tenant at most one objective shares a
// case-normalized title.
type Objective struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AreaName    string          `json:"area_name"`
	Quarter     string          `json:"quarter"`
	Priority    Priority        `json:"priority"`
	Status      ObjectiveStatus `json:"status"`
	Progress    int             `json:"progress"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	TargetDate  *time.Time      `json:"target_date,omitempty"`
	Metrics     []any           `json:"metrics"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewObjective creates an objective for a tenant. The title keeps the
// caller's original casing; case normalization happens at match time
// only.
func NewObjective(tenantID uuid.UUID, title string) Objective {
	now := time.Now()
	return Objective{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Title:     title,
		Priority:  PriorityMedium,
		Status:    ObjectiveStatusPlanning,
		Metrics:   []any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
