package model

import (
	"math"
	"time"

	"course-progression/internal/domain"

	"github.com/oklog/ulid/v2"
)

// MaxQuizScore bounds score and max score to the range the store can hold.
const MaxQuizScore = math.MaxInt32

// QuizAttempt is one submission of an episode's gating quiz. Attempts are
// append-only; one passing attempt is enough for gating.
type QuizAttempt struct {
	ID            string
	UserID        string
	EpisodeID     string
	Score         int
	MaxScore      int
	Passed        bool
	AttemptNumber int
	CreatedAt     time.Time
}

// NewQuizAttempt scores an attempt against the episode pass mark.
func NewQuizAttempt(userID string, ep *Episode, score, maxScore int) (*QuizAttempt, error) {
	if userID == "" || ep == nil || maxScore <= 0 || maxScore > MaxQuizScore || score < 0 || score > maxScore {
		return nil, domain.ErrInvalidArgument
	}
	pass := ep.QuizPassPercent
	if pass <= 0 {
		pass = DefaultQuizPassPercent
	}
	return &QuizAttempt{
		ID:        ulid.Make().String(),
		UserID:    userID,
		EpisodeID: ep.ID,
		Score:     score,
		MaxScore:  maxScore,
		Passed:    int64(score)*100 >= int64(pass)*int64(maxScore),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// QuizState is what the completion gate needs to know about an episode quiz.
type QuizState struct {
	Required bool
	Passed   bool
}
