package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.RegistrationKeyRepository = (*registrationKeyRepo)(nil)

type registrationKeyRepo struct {
	pool *pgxpool.Pool
}

func NewRegistrationKeyRepo(pool *pgxpool.Pool) repository.RegistrationKeyRepository {
	return &registrationKeyRepo{pool: pool}
}

const keyColumns = `id, code, product_kind, product_id, state, bound_email, price, notes, created_at, activated_at, deactivated_at`

func scanKey(row pgx.Row) (*model.RegistrationKey, error) {
	var k model.RegistrationKey
	var kind, state string
	err := row.Scan(
		&k.ID, &k.Code, &kind, &k.Product.ID, &state, &k.BoundEmail, &k.Price, &k.Notes,
		&k.CreatedAt, &k.ActivatedAt, &k.DeactivatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	k.Product.Kind = model.ProductKind(kind)
	k.State = model.KeyState(state)
	return &k, nil
}

// Create inserts a new key. ON CONFLICT DO NOTHING keeps a duplicate code
// from aborting the surrounding transaction, so the caller can retry with a
// fresh code inside the same transaction.
func (r *registrationKeyRepo) Create(ctx context.Context, tx repository.Tx, k *model.RegistrationKey) error {
	const q = `
INSERT INTO registration_keys (id, code, product_kind, product_id, state, price, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (code) DO NOTHING;
`
	tag, err := execSQL(ctx, r.pool, tx, q,
		k.ID, k.Code, string(k.Product.Kind), k.Product.ID, string(k.State), k.Price, k.Notes, k.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *registrationKeyRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RegistrationKey, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+keyColumns+` FROM registration_keys WHERE code = $1;`, code)
	if err != nil {
		return nil, err
	}
	return scanKey(row)
}

// Activate is the compare-and-swap at the heart of redemption. Concurrent
// callers serialize on the row lock; after the winner commits, the others
// re-evaluate the WHERE clause against the new row and update nothing.
func (r *registrationKeyRepo) Activate(ctx context.Context, tx repository.Tx, code, email string, at time.Time) (bool, error) {
	const q = `
UPDATE registration_keys
   SET state = 'activated', bound_email = $2, activated_at = $3
 WHERE code = $1 AND state = 'issued';
`
	tag, err := execSQL(ctx, r.pool, tx, q, code, email, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *registrationKeyRepo) Deactivate(ctx context.Context, tx repository.Tx, code string, at time.Time) error {
	const q = `
UPDATE registration_keys
   SET state = 'deactivated', deactivated_at = $2
 WHERE code = $1 AND state <> 'deactivated';
`
	tag, err := execSQL(ctx, r.pool, tx, q, code, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS (SELECT 1 FROM registration_keys WHERE code = $1);`, code)
	if err != nil {
		return err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return mapPgError(err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return nil
}

func (r *registrationKeyRepo) CountByState(ctx context.Context, tx repository.Tx) (map[model.KeyState]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT state, COUNT(*) FROM registration_keys GROUP BY state;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.KeyState]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.KeyState(state)] = n
	}
	return out, rows.Err()
}

func (r *registrationKeyRepo) ListByProduct(ctx context.Context, tx repository.Tx, product *model.ProductRef, offset, limit int) ([]*model.RegistrationKey, error) {
	var kind, id *string
	if product != nil {
		k := string(product.Kind)
		kind, id = &k, &product.ID
	}
	q := `
SELECT ` + keyColumns + `
  FROM registration_keys
 WHERE ($1::text IS NULL OR (product_kind = $1 AND product_id = $2))
 ORDER BY id DESC
 OFFSET $3 LIMIT $4;
`
	rows, err := queryRows(ctx, r.pool, tx, q, kind, id, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.RegistrationKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *registrationKeyRepo) HasActivatedFor(ctx context.Context, tx repository.Tx, email, courseID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM registration_keys
   WHERE state = 'activated'
     AND product_kind = 'course'
     AND product_id = $2
     AND bound_email = lower($1)
);
`
	row, err := pickRow(ctx, r.pool, tx, q, email, courseID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, mapPgError(err)
	}
	return ok, nil
}
