package model

import (
	"time"

	"course-progression/internal/domain"

	"github.com/google/uuid"
)

// DefaultQuizPassPercent is used when an episode quiz has no explicit pass mark.
const DefaultQuizPassPercent = 70

// Episode is one ordered unit of course content. Order is 1-based and
// unique within a course.
type Episode struct {
	ID              string
	CourseID        string
	Order           int
	Title           string
	DurationMinutes int // 0 when unknown
	IsFree          bool
	QuizRequired    bool
	QuizPassPercent int
	CreatedAt       time.Time
}

func NewEpisode(id, courseID string, order int, title string, durationMinutes int) (*Episode, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if courseID == "" || order < 1 || durationMinutes < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Episode{
		ID:              id,
		CourseID:        courseID,
		Order:           order,
		Title:           title,
		DurationMinutes: durationMinutes,
		QuizPassPercent: DefaultQuizPassPercent,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// EpisodeView is an episode as presented to one learner.
type EpisodeView struct {
	Episode
	IsUnlocked           bool
	IsCompleted          bool
	WatchedSeconds       int
	RequiredWatchSeconds int
	QuizPassed           bool
}
