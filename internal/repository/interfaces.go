package repository

import (
	"context"
	"errors"

	"github.com/stratix/import-engine/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a scoped lookup matches no record.
var ErrNotFound = errors.New("record not found")

// TenantRepository defines the interface for tenant operations.
type TenantRepository interface {
	Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
}

// ObjectiveRepository defines tenant-scoped objective operations. Title
// lookups are case-insensitive exact matches; stored titles keep their
// original casing.
type ObjectiveRepository interface {
	FindByTitle(ctx context.Context, tenantID uuid.UUID, title string) (domain.Objective, error)
	Create(ctx context.Context, objective domain.Objective) (domain.Objective, error)
	Update(ctx context.Context, objective domain.Objective) (domain.Objective, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Objective, error)
}

// InitiativeRepository defines initiative operations. Title lookups are
// scoped to both the tenant and the parent objective.
type InitiativeRepository interface {
	FindByTitle(ctx context.Context, tenantID, objectiveID uuid.UUID, title string) (domain.Initiative, error)
	Create(ctx context.Context, initiative domain.Initiative) (domain.Initiative, error)
	Update(ctx context.Context, initiative domain.Initiative) (domain.Initiative, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Initiative, error)
}

// ActivityRepository defines activity operations. Title lookups are
// scoped to the parent initiative only.
type ActivityRepository interface {
	FindByTitle(ctx context.Context, initiativeID uuid.UUID, title string) (domain.Activity, error)
	Create(ctx context.Context, activity domain.Activity) (domain.Activity, error)
	Update(ctx context.Context, activity domain.Activity) (domain.Activity, error)
}

// LinkRepository maintains the objective↔initiative join relation.
type LinkRepository interface {
	// Link upserts the (objective, initiative) pair. Linking an
	// already-linked pair is a no-op, not an error.
	Link(ctx context.Context, objectiveID, initiativeID uuid.UUID) error
	CountByObjective(ctx context.Context, objectiveID uuid.UUID) (int64, error)
}

// UserRepository resolves activity assignees by email within a tenant.
type UserRepository interface {
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (domain.UserProfile, error)
}

// ImportJobRepository is the durable store behind the job tracker.
// Items are append-only.
type ImportJobRepository interface {
	Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.ImportJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) error
	UpdateProgress(ctx context.Context, id uuid.UUID, processed, success, errored int) error
	MarkTerminal(ctx context.Context, id uuid.UUID, status domain.JobStatus, summary string) error
	AppendItem(ctx context.Context, item domain.ImportJobItem) error
	ListItems(ctx context.Context, jobID uuid.UUID) ([]domain.ImportJobItem, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (domain.ImportJobStats, error)
}
