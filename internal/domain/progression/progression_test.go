//go:build !integration

package progression

import (
	"fmt"
	"testing"
	"time"

	"course-progression/internal/domain/model"
)

func course(n int) []*model.Episode {
	eps := make([]*model.Episode, 0, n)
	for i := 1; i <= n; i++ {
		eps = append(eps, &model.Episode{
			ID:              fmt.Sprintf("ep-%d", i),
			CourseID:        "course-1",
			Order:           i,
			DurationMinutes: 10,
		})
	}
	return eps
}

func completed(ids ...string) ProgressIndex {
	idx := ProgressIndex{}
	for _, id := range ids {
		idx[id] = &model.EpisodeProgress{EpisodeID: id, IsCompleted: true}
	}
	return idx
}

func TestIsUnlocked(t *testing.T) {
	eps := course(5)

	t.Run("first episode is always unlocked", func(t *testing.T) {
		if !IsUnlocked(eps[0], eps, ProgressIndex{}) {
			t.Error("expected episode 1 to be unlocked")
		}
	})

	t.Run("episode 3 follows episode 2", func(t *testing.T) {
		if IsUnlocked(eps[2], eps, completed("ep-1")) {
			t.Error("expected episode 3 to be locked while episode 2 is incomplete")
		}
		if !IsUnlocked(eps[2], eps, completed("ep-2")) {
			t.Error("expected episode 3 to be unlocked once episode 2 is complete")
		}
	})

	t.Run("no skipping ahead", func(t *testing.T) {
		if IsUnlocked(eps[4], eps, completed("ep-1", "ep-2", "ep-3")) {
			t.Error("expected episode 5 to stay locked until episode 4 is complete")
		}
	})

	t.Run("gap in ordering fails closed", func(t *testing.T) {
		gapped := []*model.Episode{eps[0], eps[2]}
		if IsUnlocked(eps[2], gapped, completed("ep-1", "ep-2")) {
			t.Error("expected episode 3 to be locked without an order-2 episode")
		}
	})

	t.Run("predecessor progress without completion", func(t *testing.T) {
		idx := ProgressIndex{"ep-1": {EpisodeID: "ep-1", WatchedSeconds: 500}}
		if IsUnlocked(eps[1], eps, idx) {
			t.Error("expected watch time alone not to unlock the next episode")
		}
	})

	t.Run("unlocked set", func(t *testing.T) {
		got := UnlockedSet(eps, completed("ep-1", "ep-2"))
		want := map[string]bool{"ep-1": true, "ep-2": true, "ep-3": true, "ep-4": false, "ep-5": false}
		for id, w := range want {
			if got[id] != w {
				t.Errorf("%s: expected unlocked=%v, got %v", id, w, got[id])
			}
		}
	})
}

func TestRequiredWatchSeconds(t *testing.T) {
	cases := []struct {
		minutes int
		want    int
	}{
		{10, 420},
		{1, 60},
		{0, 60},
		{-3, 60},
		{2, 84},
		{45, 1890},
	}
	for _, tc := range cases {
		got := RequiredWatchSeconds(&model.Episode{DurationMinutes: tc.minutes})
		if got != tc.want {
			t.Errorf("duration %d: expected %d, got %d", tc.minutes, tc.want, got)
		}
	}
}

func TestCanComplete(t *testing.T) {
	first := &model.Episode{ID: "ep-1", Order: 1, DurationMinutes: 10}
	second := &model.Episode{ID: "ep-2", Order: 2, DurationMinutes: 10, QuizRequired: true}

	t.Run("watch threshold boundary", func(t *testing.T) {
		if CanComplete(first, &model.EpisodeProgress{WatchedSeconds: 419}, model.QuizState{}) {
			t.Error("expected 419 seconds to be insufficient")
		}
		if !CanComplete(first, &model.EpisodeProgress{WatchedSeconds: 420}, model.QuizState{}) {
			t.Error("expected 420 seconds to be sufficient")
		}
	})

	t.Run("first episode ignores quiz", func(t *testing.T) {
		q := model.QuizState{Required: true, Passed: false}
		if !CanComplete(first, &model.EpisodeProgress{WatchedSeconds: 600}, q) {
			t.Error("expected order 1 to be exempt from quiz gating")
		}
	})

	t.Run("quiz gated episode", func(t *testing.T) {
		p := &model.EpisodeProgress{WatchedSeconds: 900}
		if CanComplete(second, p, model.QuizState{Required: true}) {
			t.Error("expected unpassed quiz to block completion")
		}
		if !CanComplete(second, p, model.QuizState{Required: true, Passed: true}) {
			t.Error("expected passed quiz to allow completion")
		}
	})

	t.Run("later episode without quiz", func(t *testing.T) {
		ep := &model.Episode{ID: "ep-3", Order: 3}
		if !CanComplete(ep, &model.EpisodeProgress{WatchedSeconds: 60}, model.QuizState{}) {
			t.Error("expected 60 seconds to complete an episode of unknown duration")
		}
	})

	t.Run("no progress", func(t *testing.T) {
		if CanComplete(first, nil, model.QuizState{}) {
			t.Error("expected missing progress to block completion")
		}
	})
}

func TestAggregate(t *testing.T) {
	eps := course(4)

	s := Aggregate(eps, completed("ep-1", "ep-2", "ep-3"))
	if s.ProgressPercentage != 75 || s.CompletedEpisodes != 3 {
		t.Errorf("expected 75%% with 3 completed, got %d%% with %d", s.ProgressPercentage, s.CompletedEpisodes)
	}
	if s.Complete() || s.CompletedAt(time.Now()) != nil {
		t.Error("expected course to be incomplete")
	}

	s = Aggregate(eps, completed("ep-1", "ep-2", "ep-3", "ep-4"))
	if s.ProgressPercentage != 100 || !s.Complete() {
		t.Errorf("expected complete course at 100%%, got %d%%", s.ProgressPercentage)
	}
	if s.CompletedAt(time.Now()) == nil {
		t.Error("expected a completion time")
	}

	t.Run("rows outside the course are ignored", func(t *testing.T) {
		s := Aggregate(eps, completed("ep-1", "other-course-ep"))
		if s.CompletedEpisodes != 1 || s.ProgressPercentage != 25 {
			t.Errorf("expected 1 completed at 25%%, got %d at %d%%", s.CompletedEpisodes, s.ProgressPercentage)
		}
	})

	t.Run("empty course", func(t *testing.T) {
		s := Aggregate(nil, completed("ep-1"))
		if s.ProgressPercentage != 0 || s.Complete() {
			t.Errorf("expected 0%% and incomplete, got %d%%", s.ProgressPercentage)
		}
	})

	t.Run("percentage floors", func(t *testing.T) {
		s := Aggregate(course(3), completed("ep-1", "ep-2"))
		if s.ProgressPercentage != 66 {
			t.Errorf("expected 66%%, got %d%%", s.ProgressPercentage)
		}
	})
}
