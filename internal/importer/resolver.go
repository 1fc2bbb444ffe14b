package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stratix/import-engine/internal/domain"
	"github.com/stratix/import-engine/internal/repository"

	"github.com/google/uuid"
)

// ResolutionCache holds the ids resolved during one import run. It is
// owned by a single run and never shared across jobs: reusing a cache
// across tenants or files would break the reconciliation invariants.
// A title that repeats across many rows costs one store round trip.
type ResolutionCache struct {
	objectives  map[string]uuid.UUID
	initiatives map[string]uuid.UUID
	assignees   map[string]*uuid.UUID
}

// NewResolutionCache creates an empty per-run cache.
func NewResolutionCache() *ResolutionCache {
	return &ResolutionCache{
		objectives:  make(map[string]uuid.UUID),
		initiatives: make(map[string]uuid.UUID),
		assignees:   make(map[string]*uuid.UUID),
	}
}

// normalizeTitle produces the matching key: upper-cased trimmed title.
// Normalization is for matching only; stored titles keep the casing of
// their first occurrence.
func normalizeTitle(title string) string {
	return strings.ToUpper(strings.TrimSpace(title))
}

// initiativeCacheKey scopes an initiative title to its parent objective
// title, so identical initiative names under different objectives stay
// distinct.
func initiativeCacheKey(objectiveTitle, initiativeTitle string) string {
	return normalizeTitle(objectiveTitle) + "\x00" + normalizeTitle(initiativeTitle)
}

// Resolver finds-or-creates hierarchy records by natural-key matching.
type Resolver struct {
	objectives  repository.ObjectiveRepository
	initiatives repository.InitiativeRepository
	activities  repository.ActivityRepository
	users       repository.UserRepository
}

// NewResolver creates a resolver over the injected repositories.
func NewResolver(
	objectives repository.ObjectiveRepository,
	initiatives repository.InitiativeRepository,
	activities repository.ActivityRepository,
	users repository.UserRepository,
) *Resolver {
	return &Resolver{
		objectives:  objectives,
		initiatives: initiatives,
		activities:  activities,
		users:       users,
	}
}

// ResolveObjective resolves or creates the objective for a row. A cache
// hit means an earlier row in this run already resolved the title; the
// row is reconciled against that id without another store round trip.
func (r *Resolver) ResolveObjective(ctx context.Context, tenantID uuid.UUID, fields ObjectiveFields, cache *ResolutionCache) (uuid.UUID, domain.ImportAction, error) {
	// The matching key is the trimmed title; lookups and creates use
	// the trimmed form so padded cells cannot duplicate a record.
	fields.Title = strings.TrimSpace(fields.Title)
	key := normalizeTitle(fields.Title)
	if id, ok := cache.objectives[key]; ok {
		return id, domain.ActionSkip, nil
	}

	existing, err := r.objectives.FindByTitle(ctx, tenantID, fields.Title)
	if err == nil {
		applyObjectiveFields(&existing, fields)
		updated, err := r.objectives.Update(ctx, existing)
		if err != nil {
			return uuid.Nil, domain.ActionUpdate, err
		}
		cache.objectives[key] = updated.ID
		return updated.ID, domain.ActionUpdate, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, domain.ActionCreate, err
	}

	objective := domain.NewObjective(tenantID, fields.Title)
	applyObjectiveFields(&objective, fields)
	created, err := r.objectives.Create(ctx, objective)
	if err != nil {
		return uuid.Nil, domain.ActionCreate, err
	}
	cache.objectives[key] = created.ID
	return created.ID, domain.ActionCreate, nil
}

// ResolveInitiative resolves or creates the initiative for a row,
// scoped to the parent objective that was just resolved. The cache key
// is the (objective title, initiative title) composite.
func (r *Resolver) ResolveInitiative(ctx context.Context, tenantID, objectiveID uuid.UUID, objectiveTitle string, fields InitiativeFields, cache *ResolutionCache) (uuid.UUID, domain.ImportAction, error) {
	fields.Title = strings.TrimSpace(fields.Title)
	key := initiativeCacheKey(objectiveTitle, fields.Title)
	if id, ok := cache.initiatives[key]; ok {
		return id, domain.ActionSkip, nil
	}

	existing, err := r.initiatives.FindByTitle(ctx, tenantID, objectiveID, fields.Title)
	if err == nil {
		applyInitiativeFields(&existing, fields)
		updated, err := r.initiatives.Update(ctx, existing)
		if err != nil {
			return uuid.Nil, domain.ActionUpdate, err
		}
		cache.initiatives[key] = updated.ID
		return updated.ID, domain.ActionUpdate, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, domain.ActionCreate, err
	}

	initiative := domain.NewInitiative(tenantID, objectiveID, fields.Title)
	applyInitiativeFields(&initiative, fields)
	created, err := r.initiatives.Create(ctx, initiative)
	if err != nil {
		return uuid.Nil, domain.ActionCreate, err
	}
	cache.initiatives[key] = created.ID
	return created.ID, domain.ActionCreate, nil
}

// ResolveActivity resolves or creates the activity for a row, scoped to
// the resolved initiative only. An assignee email that matches no user
// leaves the activity unassigned; that is not an error.
func (r *Resolver) ResolveActivity(ctx context.Context, tenantID, initiativeID uuid.UUID, fields ActivityFields, cache *ResolutionCache) (uuid.UUID, domain.ImportAction, error) {
	fields.Title = strings.TrimSpace(fields.Title)
	assignee, err := r.resolveAssignee(ctx, tenantID, fields.AssigneeEmail, cache)
	if err != nil {
		return uuid.Nil, domain.ActionCreate, err
	}

	existing, err := r.activities.FindByTitle(ctx, initiativeID, fields.Title)
	if err == nil {
		existing.Description = fields.Description
		existing.IsCompleted = fields.IsCompleted
		existing.AssignedTo = assignee
		updated, err := r.activities.Update(ctx, existing)
		if err != nil {
			return uuid.Nil, domain.ActionUpdate, err
		}
		return updated.ID, domain.ActionUpdate, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, domain.ActionCreate, err
	}

	activity := domain.NewActivity(initiativeID, fields.Title)
	activity.Description = fields.Description
	activity.IsCompleted = fields.IsCompleted
	activity.AssignedTo = assignee
	created, err := r.activities.Create(ctx, activity)
	if err != nil {
		return uuid.Nil, domain.ActionCreate, err
	}
	return created.ID, domain.ActionCreate, nil
}

func (r *Resolver) resolveAssignee(ctx context.Context, tenantID uuid.UUID, email string, cache *ResolutionCache) (*uuid.UUID, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}

	key := strings.ToLower(email)
	if id, ok := cache.assignees[key]; ok {
		return id, nil
	}

	user, err := r.users.FindByEmail(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			cache.assignees[key] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve assignee %s: %w", email, err)
	}

	id := user.ID
	cache.assignees[key] = &id
	return &id, nil
}

func applyObjectiveFields(objective *domain.Objective, fields ObjectiveFields) {
	objective.Description = fields.Description
	objective.AreaName = fields.AreaName
	objective.Quarter = fields.Quarter
	objective.Priority = fields.Priority
	objective.Status = fields.Status
	objective.Progress = fields.Progress
	objective.StartDate = fields.StartDate
	objective.EndDate = fields.EndDate
	objective.TargetDate = fields.TargetDate
	objective.Metrics = fields.Metrics
}

func applyInitiativeFields(initiative *domain.Initiative, fields InitiativeFields) {
	initiative.Description = fields.Description
	initiative.Status = fields.Status
	initiative.Progress = fields.Progress
	initiative.StartDate = fields.StartDate
	initiative.DueDate = fields.DueDate
	initiative.CompletionDate = fields.CompletionDate
}
