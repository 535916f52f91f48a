package usecase

import (
	"context"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	"course-progression/internal/domain/progression"

	"golang.org/x/sync/errgroup"
)

// courseState is everything the unlock evaluator needs for one learner and
// one course, read from the store.
type courseState struct {
	decision model.AccessDecision
	episodes []*model.Episode
	progress progression.ProgressIndex
}

func (s *courseState) unlocked(ep *model.Episode) bool {
	return s.decision.AllowsEpisode(ep) && progression.IsUnlocked(ep, s.episodes, s.progress)
}

// episodeGuard performs the checks shared by every progress-path operation:
// the episode belongs to the course, the learner may open it, and the
// linear chain has reached it.
type episodeGuard struct {
	episodes repository.EpisodeRepository
	progress repository.EpisodeProgressRepository
	quizzes  repository.QuizAttemptRepository
	access   AccessUseCase
}

func (g *episodeGuard) loadCourse(ctx context.Context, userID, courseID string) (*courseState, error) {
	st := &courseState{}
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		d, err := g.access.ResolveAccess(gctx, userID, courseID)
		st.decision = d
		return err
	})
	eg.Go(func() error {
		eps, err := g.episodes.ListByCourse(gctx, repository.NoTX, courseID)
		st.episodes = eps
		return err
	})
	eg.Go(func() error {
		rows, err := g.progress.ListByUserAndCourse(gctx, repository.NoTX, userID, courseID)
		st.progress = progression.IndexProgress(rows)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}

// authorize returns the episode and course state, or ErrNotFound /
// ErrAccessDenied.
func (g *episodeGuard) authorize(ctx context.Context, userID, courseID, episodeID string) (*model.Episode, *courseState, error) {
	if userID == "" || courseID == "" || episodeID == "" {
		return nil, nil, domain.ErrInvalidArgument
	}
	ep, err := g.episodes.FindByID(ctx, repository.NoTX, episodeID)
	if err != nil {
		return nil, nil, err
	}
	if ep.CourseID != courseID {
		return nil, nil, domain.ErrNotFound
	}
	st, err := g.loadCourse(ctx, userID, courseID)
	if err != nil {
		return nil, nil, err
	}
	if !st.unlocked(ep) {
		return nil, nil, domain.ErrAccessDenied
	}
	return ep, st, nil
}

func (g *episodeGuard) quizState(ctx context.Context, tx repository.Tx, userID string, ep *model.Episode) (model.QuizState, error) {
	if !ep.QuizRequired {
		return model.QuizState{}, nil
	}
	passed, err := g.quizzes.HasPassed(ctx, tx, userID, ep.ID)
	if err != nil {
		return model.QuizState{}, err
	}
	return model.QuizState{Required: true, Passed: passed}, nil
}
