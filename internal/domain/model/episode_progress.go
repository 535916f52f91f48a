package model

import (
	"math"
	"time"
)

// MaxWatchedSeconds is the largest watch time a report may carry.
const MaxWatchedSeconds = math.MaxInt32

// EpisodeProgress tracks one learner's playback of one episode.
// WatchedSeconds never decreases and IsCompleted only moves false -> true.
type EpisodeProgress struct {
	UserID         string
	EpisodeID      string
	WatchedSeconds int
	IsCompleted    bool
	CompletedAt    *time.Time
	UpdatedAt      time.Time
}

// Merge folds an incoming report into p using the same rules the store
// enforces on write.
func (p *EpisodeProgress) Merge(watchedSeconds int, complete bool, at time.Time) {
	if watchedSeconds > p.WatchedSeconds {
		p.WatchedSeconds = watchedSeconds
	}
	if complete && !p.IsCompleted {
		p.IsCompleted = true
		t := at
		p.CompletedAt = &t
	}
	p.UpdatedAt = at
}
