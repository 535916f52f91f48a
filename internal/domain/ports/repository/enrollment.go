package repository

import (
	"context"
	"time"

	"course-progression/internal/domain/model"
)

type EnrollmentRepository interface {
	// EnsureExists creates a zero-progress enrollment if none exists and
	// reports whether a row was created. Existing rows are never modified.
	EnsureExists(ctx context.Context, tx Tx, userID, courseID string, at time.Time) (bool, error)
	FindByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) (*model.Enrollment, error)
	// UpdateProgress writes aggregated progress. completedAt only fills an
	// empty column; a stored completion time is never cleared or replaced.
	UpdateProgress(ctx context.Context, tx Tx, userID, courseID string, completedEpisodes, pct int, completedAt *time.Time) (*model.Enrollment, error)
	ExistsForEmail(ctx context.Context, tx Tx, email, courseID string) (bool, error)
	CountCompleted(ctx context.Context, tx Tx) (int, error)
}
