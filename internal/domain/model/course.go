package model

import (
	"time"

	"course-progression/internal/domain"

	"github.com/google/uuid"
)

// Course groups an ordered list of episodes.
type Course struct {
	ID        string
	Title     string
	IsFree    bool
	CreatedAt time.Time
}

func NewCourse(id, title string, isFree bool) (*Course, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if title == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Course{ID: id, Title: title, IsFree: isFree, CreatedAt: time.Now().UTC()}, nil
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }
