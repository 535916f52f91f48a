package model

import "time"

// Enrollment is the ledger row for a (user, course) pair. Progress fields are
// derived from episode progress and only written by the aggregator.
type Enrollment struct {
	UserID             string
	CourseID           string
	ProgressPercentage int
	CompletedEpisodes  int
	EnrolledAt         time.Time
	CompletedAt        *time.Time
	UpdatedAt          time.Time
}

func (e *Enrollment) IsCompleted() bool { return e != nil && e.CompletedAt != nil }
