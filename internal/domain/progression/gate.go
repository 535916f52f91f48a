package progression

import "course-progression/internal/domain/model"

const (
	minWatchSeconds   = 60
	watchRatioPercent = 70
)

// RequiredWatchSeconds is 70% of the runtime, never below 60 seconds.
// Episodes with unknown duration need 60 seconds.
func RequiredWatchSeconds(ep *model.Episode) int {
	if ep == nil || ep.DurationMinutes <= 0 {
		return minWatchSeconds
	}
	req := ep.DurationMinutes * 60 * watchRatioPercent / 100
	if req < minWatchSeconds {
		return minWatchSeconds
	}
	return req
}

// CanComplete applies the completion gate. The first episode of a course is
// gated on watch time only; later episodes also need their quiz passed when
// one is required.
func CanComplete(ep *model.Episode, progress *model.EpisodeProgress, quiz model.QuizState) bool {
	if ep == nil {
		return false
	}
	watched := 0
	if progress != nil {
		watched = progress.WatchedSeconds
	}
	if watched < RequiredWatchSeconds(ep) {
		return false
	}
	if ep.Order <= 1 {
		return true
	}
	return !quiz.Required || quiz.Passed
}
