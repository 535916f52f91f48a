package repository

import (
	"context"
	"time"

	"course-progression/internal/domain/model"
)

type EpisodeProgressRepository interface {
	// Record applies a progress report as a conditional upsert: watched seconds
	// only grow and completion only moves false -> true. It returns the
	// stored row after the write.
	Record(ctx context.Context, tx Tx, userID, episodeID string, watchedSeconds int, complete bool, at time.Time) (*model.EpisodeProgress, error)
	Find(ctx context.Context, tx Tx, userID, episodeID string) (*model.EpisodeProgress, error)
	ListByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) ([]*model.EpisodeProgress, error)
}

type QuizAttemptRepository interface {
	// Create appends an attempt, assigning its AttemptNumber.
	Create(ctx context.Context, tx Tx, a *model.QuizAttempt) error
	HasPassed(ctx context.Context, tx Tx, userID, episodeID string) (bool, error)
	// PassedEpisodes returns the ids of episodes in the course whose quiz the
	// user has passed at least once.
	PassedEpisodes(ctx context.Context, tx Tx, userID, courseID string) (map[string]bool, error)
}
