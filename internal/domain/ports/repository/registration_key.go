package repository

import (
	"context"
	"time"

	"course-progression/internal/domain/model"
)

// RegistrationKeyRepository is the durable store for registration keys.
type RegistrationKeyRepository interface {
	// Create inserts a new key. A duplicate code yields domain.ErrAlreadyExists.
	Create(ctx context.Context, tx Tx, k *model.RegistrationKey) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.RegistrationKey, error)
	// Activate moves the key from issued to activated and binds email, but only
	// if it is still issued. It reports whether this call won the transition.
	Activate(ctx context.Context, tx Tx, code, email string, at time.Time) (bool, error)
	// Deactivate marks an issued or activated key deactivated. Already
	// deactivated keys are left untouched. Unknown codes yield domain.ErrNotFound.
	Deactivate(ctx context.Context, tx Tx, code string, at time.Time) error
	CountByState(ctx context.Context, tx Tx) (map[model.KeyState]int, error)
	// ListByProduct returns keys newest first. A nil product lists all keys.
	ListByProduct(ctx context.Context, tx Tx, product *model.ProductRef, offset, limit int) ([]*model.RegistrationKey, error)
	// HasActivatedFor reports whether an activated course key is bound to email.
	HasActivatedFor(ctx context.Context, tx Tx, email, courseID string) (bool, error)
}
