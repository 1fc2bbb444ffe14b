package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/stratix/import-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// initiativeRepository implements InitiativeRepository backed by pgxpool.
type initiativeRepository struct {
	pool *pgxpool.Pool
}

// NewInitiativeRepository creates a new initiative repository.
func NewInitiativeRepository(pool *pgxpool.Pool) InitiativeRepository {
	return &initiativeRepository{pool: pool}
}

const initiativeColumns = `id, tenant_id, objective_id, title, description, status, progress,
	start_date, due_date, completion_date, created_at, updated_at`

// FindByTitle looks up an initiative by case-insensitive exact title
// match scoped to both the tenant and the parent objective. A title
// match under a different objective is a different initiative.
func (r *initiativeRepository) FindByTitle(ctx context.Context, tenantID, objectiveID uuid.UUID, title string) (domain.Initiative, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+initiativeColumns+`
		 FROM initiatives
		 WHERE tenant_id = $1 AND objective_id = $2 AND LOWER(title) = LOWER($3)`,
		tenantID,
		objectiveID,
		title,
	)
	initiative, err := scanInitiative(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Initiative{}, ErrNotFound
		}
		return domain.Initiative{}, fmt.Errorf("failed to find initiative by title: %w", err)
	}
	return initiative, nil
}

// Create inserts a new initiative.
func (r *initiativeRepository) Create(ctx context.Context, initiative domain.Initiative) (domain.Initiative, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO initiatives (id, tenant_id, objective_id, title, description, status, progress,
			start_date, due_date, completion_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+initiativeColumns,
		initiative.ID,
		initiative.TenantID,
		initiative.ObjectiveID,
		initiative.Title,
		initiative.Description,
		initiative.Status,
		initiative.Progress,
		initiative.StartDate,
		initiative.DueDate,
		initiative.CompletionDate,
	)
	created, err := scanInitiative(row)
	if err != nil {
		return domain.Initiative{}, fmt.Errorf("failed to create initiative: %w", err)
	}
	return created, nil
}

// Update applies mutable fields in place.
func (r *initiativeRepository) Update(ctx context.Context, initiative domain.Initiative) (domain.Initiative, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE initiatives
		 SET description = $2, status = $3, progress = $4,
		     start_date = $5, due_date = $6, completion_date = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+initiativeColumns,
		initiative.ID,
		initiative.Description,
		initiative.Status,
		initiative.Progress,
		initiative.StartDate,
		initiative.DueDate,
		initiative.CompletionDate,
	)
	updated, err := scanInitiative(row)
	if err != nil {
		return domain.Initiative{}, fmt.Errorf("failed to update initiative: %w", err)
	}
	return updated, nil
}

// ListByTenant returns all initiatives for a tenant.
func (r *initiativeRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Initiative, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+initiativeColumns+`
		 FROM initiatives
		 WHERE tenant_id = $1
		 ORDER BY title`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list initiatives: %w", err)
	}
	defer rows.Close()

	initiatives := []domain.Initiative{}
	for rows.Next() {
		initiative, err := scanInitiative(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan initiative: %w", err)
		}
		initiatives = append(initiatives, initiative)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate initiatives: %w", err)
	}
	return initiatives, nil
}

func scanInitiative(row pgx.Row) (domain.Initiative, error) {
	var initiative domain.Initiative
	if err := row.Scan(
		&initiative.ID,
		&initiative.TenantID,
		&initiative.ObjectiveID,
		&initiative.Title,
		&initiative.Description,
		&initiative.Status,
		&initiative.Progress,
		&initiative.StartDate,
		&initiative.DueDate,
		&initiative.CompletionDate,
		&initiative.CreatedAt,
		&initiative.UpdatedAt,
	); err != nil {
		return domain.Initiative{}, err
	}
	return initiative, nil
}
