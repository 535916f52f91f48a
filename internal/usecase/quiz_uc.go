package usecase

import (
	"context"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	"course-progression/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ QuizUseCase = (*quizUC)(nil)

type QuizUseCase interface {
	// SubmitAttempt scores and stores an attempt at the episode's gating quiz.
	SubmitAttempt(ctx context.Context, userID, courseID, episodeID string, score, maxScore int) (*model.QuizAttempt, error)
}

type quizUC struct {
	episodeGuard
	log *zerolog.Logger
}

func NewQuizUseCase(
	episodes repository.EpisodeRepository,
	progress repository.EpisodeProgressRepository,
	quizzes repository.QuizAttemptRepository,
	access AccessUseCase,
	logger *zerolog.Logger,
) *quizUC {
	return &quizUC{
		episodeGuard: episodeGuard{
			episodes: episodes,
			progress: progress,
			quizzes:  quizzes,
			access:   access,
		},
		log: logger,
	}
}

func (q *quizUC) SubmitAttempt(ctx context.Context, userID, courseID, episodeID string, score, maxScore int) (*model.QuizAttempt, error) {
	defer logging.TraceDuration(q.log, "QuizUC.SubmitAttempt")()

	ep, _, err := q.authorize(ctx, userID, courseID, episodeID)
	if err != nil {
		return nil, err
	}
	if !ep.QuizRequired {
		return nil, domain.ErrInvalidArgument
	}

	attempt, err := model.NewQuizAttempt(userID, ep, score, maxScore)
	if err != nil {
		return nil, err
	}
	if err := q.quizzes.Create(ctx, repository.NoTX, attempt); err != nil {
		return nil, err
	}

	q.log.Info().
		Str("user_id", userID).
		Str("episode_id", ep.ID).
		Int("attempt", attempt.AttemptNumber).
		Bool("passed", attempt.Passed).
		Msg("quiz attempt recorded")
	return attempt, nil
}
