package usecase

import (
	"context"

	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	"course-progression/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Snapshot is a point-in-time view used by dashboards and the stats job.
type Snapshot struct {
	KeysByState          map[model.KeyState]int
	CompletedEnrollments int
}

type StatsUseCase interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

type statsUC struct {
	keys        repository.RegistrationKeyRepository
	enrollments repository.EnrollmentRepository

	log *zerolog.Logger
}

func NewStatsUseCase(keys repository.RegistrationKeyRepository, enrollments repository.EnrollmentRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{keys: keys, enrollments: enrollments, log: logger}
}

func (s *statsUC) Snapshot(ctx context.Context) (*Snapshot, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Snapshot")()

	byState, err := s.keys.CountByState(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	completed, err := s.enrollments.CountCompleted(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	return &Snapshot{KeysByState: byState, CompletedEnrollments: completed}, nil
}
