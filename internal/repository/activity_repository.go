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

// activityRepository implements ActivityRepository backed by pgxpool.
type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

const activityColumns = `id, initiative_id, title, description, is_completed, assigned_to, created_at, updated_at`

// FindByTitle looks up an activity by case-insensitive exact title match
// scoped to the parent initiative. Activities are not tenant-global.
func (r *activityRepository) FindByTitle(ctx context.Context, initiativeID uuid.UUID, title string) (domain.Activity, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+activityColumns+`
		 FROM activities
		 WHERE initiative_id = $1 AND LOWER(title) = LOWER($2)`,
		initiativeID,
		title,
	)
	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Activity{}, ErrNotFound
		}
		return domain.Activity{}, fmt.Errorf("failed to find activity by title: %w", err)
	}
	return activity, nil
}

// Create inserts a new activity.
func (r *activityRepository) Create(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO activities (id, initiative_id, title, description, is_completed, assigned_to)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+activityColumns,
		activity.ID,
		activity.InitiativeID,
		activity.Title,
		activity.Description,
		activity.IsCompleted,
		activity.AssignedTo,
	)
	created, err := scanActivity(row)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("failed to create activity: %w", err)
	}
	return created, nil
}

// Update applies mutable fields in place.
func (r *activityRepository) Update(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE activities
		 SET description = $2, is_completed = $3, assigned_to = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+activityColumns,
		activity.ID,
		activity.Description,
		activity.IsCompleted,
		activity.AssignedTo,
	)
	updated, err := scanActivity(row)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("failed to update activity: %w", err)
	}
	return updated, nil
}

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var activity domain.Activity
	if err := row.Scan(
		&activity.ID,
		&activity.InitiativeID,
		&activity.Title,
		&activity.Description,
		&activity.IsCompleted,
		&activity.AssignedTo,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	); err != nil {
		return domain.Activity{}, err
	}
	return activity, nil
}
