package usecase

import (
	"context"
	"errors"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	"course-progression/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase is the single place that decides course-level access.
type AccessUseCase interface {
	// CheckAccess is true iff an activated key for the course is bound to
	// email or the email's user already has an enrollment.
	CheckAccess(ctx context.Context, email, courseID string) (bool, error)
	// ResolveAccess combines enrollment, activated keys and free courses.
	ResolveAccess(ctx context.Context, userID, courseID string) (model.AccessDecision, error)
}

type accessUC struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	keys        repository.RegistrationKeyRepository
	users       repository.UserRepository
	log         *zerolog.Logger
}

func NewAccessUseCase(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	keys repository.RegistrationKeyRepository,
	users repository.UserRepository,
	logger *zerolog.Logger,
) *accessUC {
	return &accessUC{courses: courses, enrollments: enrollments, keys: keys, users: users, log: logger}
}

func (a *accessUC) CheckAccess(ctx context.Context, email, courseID string) (bool, error) {
	defer logging.TraceDuration(a.log, "AccessUC.CheckAccess")()

	email = model.NormalizeEmail(email)
	if email == "" || courseID == "" {
		return false, domain.ErrInvalidArgument
	}
	ok, err := a.keys.HasActivatedFor(ctx, repository.NoTX, email, courseID)
	if err != nil || ok {
		return ok, err
	}
	return a.enrollments.ExistsForEmail(ctx, repository.NoTX, email, courseID)
}

func (a *accessUC) ResolveAccess(ctx context.Context, userID, courseID string) (model.AccessDecision, error) {
	defer logging.TraceDuration(a.log, "AccessUC.ResolveAccess")()

	denied := model.AccessDecision{Source: model.AccessSourceNone}

	course, err := a.courses.FindByID(ctx, repository.NoTX, courseID)
	if err != nil {
		return denied, err
	}
	if course.IsFree {
		return model.AccessDecision{HasAccess: true, Source: model.AccessSourceFreeCourse}, nil
	}

	_, err = a.enrollments.FindByUserAndCourse(ctx, repository.NoTX, userID, courseID)
	switch {
	case err == nil:
		return model.AccessDecision{HasAccess: true, Source: model.AccessSourceEnrollment}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return denied, err
	}

	user, err := a.users.FindByID(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return denied, nil
	}
	if err != nil {
		return denied, err
	}
	ok, err := a.keys.HasActivatedFor(ctx, repository.NoTX, user.Email, courseID)
	if err != nil {
		return denied, err
	}
	if ok {
		return model.AccessDecision{HasAccess: true, Source: model.AccessSourceKey}, nil
	}
	return denied, nil
}
