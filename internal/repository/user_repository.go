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

// userRepository implements UserRepository backed by pgxpool.
type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

// FindByEmail resolves a user by exact email match within a tenant.
func (r *userRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (domain.UserProfile, error) {
	var user domain.UserProfile
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, tenant_id, email, full_name, created_at
		 FROM user_profiles
		 WHERE tenant_id = $1 AND LOWER(email) = LOWER($2)`,
		tenantID,
		email,
	).Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.FullName,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, ErrNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}
