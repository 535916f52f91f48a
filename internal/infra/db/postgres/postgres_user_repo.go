package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}
	return &u, nil
}

// FindOrCreateByEmail is a single upsert so two first-time redemptions for
// the same email resolve to the same row.
func (r *userRepo) FindOrCreateByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	const q = `
INSERT INTO users (id, email, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING id, email, is_admin, created_at;
`
	row, err := pickRow(ctx, r.pool, tx, q, uuid.NewString(), model.NormalizeEmail(email), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, email, is_admin, created_at FROM users WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, email, is_admin, created_at FROM users WHERE email = $1;`, model.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}
