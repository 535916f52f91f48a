// Package progression holds the pure rules of course progression: which
// episodes are unlocked, when an episode may be completed and how enrollment
// progress is derived. Nothing here touches storage.
package progression

import "course-progression/internal/domain/model"

// ProgressIndex maps episode id to the learner's stored progress.
type ProgressIndex map[string]*model.EpisodeProgress

func IndexProgress(rows []*model.EpisodeProgress) ProgressIndex {
	idx := make(ProgressIndex, len(rows))
	for _, p := range rows {
		idx[p.EpisodeID] = p
	}
	return idx
}

func (idx ProgressIndex) Completed(episodeID string) bool {
	p, ok := idx[episodeID]
	return ok && p != nil && p.IsCompleted
}

// IsUnlocked reports whether ep is reachable in the linear chain. Order 1 is
// always unlocked; order n needs the episode with order n-1 to be completed.
// A missing predecessor keeps the episode locked. Course-level access is the
// caller's concern.
func IsUnlocked(ep *model.Episode, sorted []*model.Episode, progress ProgressIndex) bool {
	if ep == nil {
		return false
	}
	if ep.Order == 1 {
		return true
	}
	if ep.Order < 1 {
		return false
	}
	prev := findByOrder(sorted, ep.CourseID, ep.Order-1)
	if prev == nil {
		return false
	}
	return progress.Completed(prev.ID)
}

// UnlockedSet evaluates IsUnlocked for every episode in sorted.
func UnlockedSet(sorted []*model.Episode, progress ProgressIndex) map[string]bool {
	out := make(map[string]bool, len(sorted))
	for _, ep := range sorted {
		out[ep.ID] = IsUnlocked(ep, sorted, progress)
	}
	return out
}

func findByOrder(sorted []*model.Episode, courseID string, order int) *model.Episode {
	for _, e := range sorted {
		if e.Order == order && e.CourseID == courseID {
			return e
		}
	}
	return nil
}
