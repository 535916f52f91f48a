//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"course-progression/internal/domain"
)

func TestQuizUseCase_SubmitAttempt(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.addCourse("c1", 3, false, true)
	w.enroll(learner, "c1")
	quiz := newQuizUC(w)
	progress := newProgressUC(w)

	if _, err := quiz.SubmitAttempt(ctx, learner, "c1", episodeID("c1", 2), 9, 10); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected locked episode to be denied, got %v", err)
	}

	watchAndComplete(t, progress, "c1", 1)

	first, err := quiz.SubmitAttempt(ctx, learner, "c1", episodeID("c1", 2), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if first.Passed || first.AttemptNumber != 1 {
		t.Errorf("expected a failed first attempt, got %+v", first)
	}
	second, err := quiz.SubmitAttempt(ctx, learner, "c1", episodeID("c1", 2), 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Passed || second.AttemptNumber != 2 {
		t.Errorf("expected a passing second attempt, got %+v", second)
	}

	t.Run("episode without quiz", func(t *testing.T) {
		if _, err := quiz.SubmitAttempt(ctx, learner, "c1", episodeID("c1", 1), 1, 1); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("invalid score", func(t *testing.T) {
		if _, err := quiz.SubmitAttempt(ctx, learner, "c1", episodeID("c1", 2), 11, 10); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("passed quiz is visible in listing", func(t *testing.T) {
		views, err := progress.ListEpisodes(ctx, learner, "c1")
		if err != nil {
			t.Fatal(err)
		}
		if !views[1].QuizPassed {
			t.Error("expected episode 2 quiz to be reported as passed")
		}
	})
}
