package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stratix/import-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// objectiveRepository implements ObjectiveRepository backed by pgxpool.
type objectiveRepository struct {
	pool *pgxpool.Pool
}

// NewObjectiveRepository creates a new objective repository.
func NewObjectiveRepository(pool *pgxpool.Pool) ObjectiveRepository {
	return &objectiveRepository{pool: pool}
}

const objectiveColumns = `id, tenant_id, title, description, area_name, quarter, priority, status, progress,
	start_date, end_date, target_date, metrics, created_at, updated_at`

// FindByTitle looks up an objective by case-insensitive exact title
// match within a tenant.
func (r *objectiveRepository) FindByTitle(ctx context.Context, tenantID uuid.UUID, title string) (domain.Objective, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+objectiveColumns+`
		 FROM objectives
		 WHERE tenant_id = $1 AND LOWER(title) = LOWER($2)`,
		tenantID,
		title,
	)
	objective, err := scanObjective(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Objective{}, ErrNotFound
		}
		return domain.Objective{}, fmt.Errorf("failed to find objective by title: %w", err)
	}
	return objective, nil
}

// Create inserts a new objective.
func (r *objectiveRepository) Create(ctx context.Context, objective domain.Objective) (domain.Objective, error) {
	metricsJSON, err := json.Marshal(objective.Metrics)
	if err != nil {
		return domain.Objective{}, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO objectives (id, tenant_id, title, description, area_name, quarter, priority, status, progress,
			start_date, end_date, target_date, metrics)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+objectiveColumns,
		objective.ID,
		objective.TenantID,
		objective.Title,
		objective.Description,
		objective.AreaName,
		objective.Quarter,
		objective.Priority,
		objective.Status,
		objective.Progress,
		objective.StartDate,
		objective.EndDate,
		objective.TargetDate,
		metricsJSON,
	)
	created, err := scanObjective(row)
	if err != nil {
		return domain.Objective{}, fmt.Errorf("failed to create objective: %w", err)
	}
	return created, nil
}

// Update applies mutable fields in place. The stored title (and its
// casing) is not changed by updates.
func (r *objectiveRepository) Update(ctx context.Context, objective domain.Objective) (domain.Objective, error) {
	metricsJSON, err := json.Marshal(objective.Metrics)
	if err != nil {
		return domain.Objective{}, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`UPDATE objectives
		 SET description = $2, area_name = $3, quarter = $4, priority = $5, status = $6, progress = $7,
		     start_date = $8, end_date = $9, target_date = $10, metrics = $11, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+objectiveColumns,
		objective.ID,
		objective.Description,
		objective.AreaName,
		objective.Quarter,
		objective.Priority,
		objective.Status,
		objective.Progress,
		objective.StartDate,
		objective.EndDate,
		objective.TargetDate,
		metricsJSON,
	)
	updated, err := scanObjective(row)
	if err != nil {
		return domain.Objective{}, fmt.Errorf("failed to update objective: %w", err)
	}
	return updated, nil
}

// ListByTenant returns all objectives for a tenant ordered by title.
func (r *objectiveRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Objective, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+objectiveColumns+`
		 FROM objectives
		 WHERE tenant_id = $1
		 ORDER BY title`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list objectives: %w", err)
	}
	defer rows.Close()

	objectives := []domain.Objective{}
	for rows.Next() {
		objective, err := scanObjective(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan objective: %w", err)
		}
		objectives = append(objectives, objective)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate objectives: %w", err)
	}
	return objectives, nil
}

func scanObjective(row pgx.Row) (domain.Objective, error) {
	var (
		objective   domain.Objective
		metricsJSON []byte
	)
	if err := row.Scan(
		&objective.ID,
		&objective.TenantID,
		&objective.Title,
		&objective.Description,
		&objective.AreaName,
		&objective.Quarter,
		&objective.Priority,
		&objective.Status,
		&objective.Progress,
		&objective.StartDate,
		&objective.EndDate,
		&objective.TargetDate,
		&metricsJSON,
		&objective.CreatedAt,
		&objective.UpdatedAt,
	); err != nil {
		return domain.Objective{}, err
	}

	objective.Metrics = []any{}
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &objective.Metrics); err != nil {
			return domain.Objective{}, fmt.Errorf("failed to decode metrics for objective %s: %w", objective.ID, err)
		}
	}
	return objective, nil
}
