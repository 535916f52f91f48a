package repository

import (
	"context"

	"course-progression/internal/domain/model"
)

type UserRepository interface {
	// FindOrCreateByEmail resolves an email to a user, creating it atomically
	// when absent. Concurrent callers with the same email get the same row.
	FindOrCreateByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
}
