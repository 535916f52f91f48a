package progression

import (
	"time"

	"course-progression/internal/domain/model"
)

// Summary is the derived enrollment state for one learner in one course.
type Summary struct {
	CompletedEpisodes  int
	TotalEpisodes      int
	ProgressPercentage int
}

// Complete is true once every episode of a non-empty course is completed.
func (s Summary) Complete() bool {
	return s.TotalEpisodes > 0 && s.CompletedEpisodes == s.TotalEpisodes
}

// CompletedAt returns the completion timestamp to persist, or nil. The store
// keeps an earlier value if one exists.
func (s Summary) CompletedAt(now time.Time) *time.Time {
	if !s.Complete() {
		return nil
	}
	return &now
}

// Aggregate counts completed episodes restricted to the course's episode set.
// Progress rows for episodes outside the set are ignored.
func Aggregate(episodes []*model.Episode, progress ProgressIndex) Summary {
	s := Summary{TotalEpisodes: len(episodes)}
	for _, ep := range episodes {
		if progress.Completed(ep.ID) {
			s.CompletedEpisodes++
		}
	}
	if s.TotalEpisodes > 0 {
		s.ProgressPercentage = 100 * s.CompletedEpisodes / s.TotalEpisodes
	}
	return s
}
