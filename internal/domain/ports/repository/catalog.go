package repository

import (
	"context"

	"course-progression/internal/domain/model"
)

type CourseRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Course) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
}

type EpisodeRepository interface {
	Save(ctx context.Context, tx Tx, e *model.Episode) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Episode, error)
	// ListByCourse returns the course's episodes sorted by order ascending.
	ListByCourse(ctx context.Context, tx Tx, courseID string) ([]*model.Episode, error)
}
