package usecase

import (
	"context"
	"net/mail"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	"course-progression/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase resolves learners for the admin tooling.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, log: logger}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, email string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	email = model.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidArgument
	}
	// single upsert statement, safe under concurrent first requests
	return u.users.FindOrCreateByEmail(ctx, repository.NoTX, email)
}

func (u *userUC) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByID")()
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByEmail")()
	return u.users.FindByEmail(ctx, repository.NoTX, model.NormalizeEmail(email))
}
