package model

import (
	"net/mail"
	"time"

	"course-progression/internal/domain"

	"github.com/google/uuid"
)

// User is a learner (or staff member) identified by email.
type User struct {
	ID        string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
}

func NewUser(id, email string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:        id,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
