package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// linkRepository implements LinkRepository backed by pgxpool.
type linkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository creates a new objective↔initiative link repository.
func NewLinkRepository(pool *pgxpool.Pool) LinkRepository {
	return &linkRepository{pool: pool}
}

// Link upserts the join record for the exact (objective, initiative)
// pair. The pair is the natural unique key; a conflict means the link
// already exists and is left untouched.
func (r *linkRepository) Link(ctx context.Context, objectiveID, initiativeID uuid.UUID) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO objective_initiatives (objective_id, initiative_id)
		 VALUES ($1, $2)
		 ON CONFLICT (objective_id, initiative_id) DO NOTHING`,
		objectiveID,
		initiativeID,
	)
	if err != nil {
		return fmt.Errorf("failed to link objective %s to initiative %s: %w", objectiveID, initiativeID, err)
	}
	return nil
}

// CountByObjective returns the number of initiatives linked to an objective.
func (r *linkRepository) CountByObjective(ctx context.Context, objectiveID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM objective_initiatives WHERE objective_id = $1`,
		objectiveID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links for objective: %w", err)
	}
	return count, nil
}
