package model

import (
	"strings"
	"time"

	"course-progression/internal/domain"

	"github.com/oklog/ulid/v2"
)

// KeyState is the lifecycle state of a registration key.
type KeyState string

const (
	KeyStateIssued      KeyState = "issued"
	KeyStateActivated   KeyState = "activated"
	KeyStateDeactivated KeyState = "deactivated"
)

// ProductKind tells whether a key grants a course or an add-on product.
type ProductKind string

const (
	ProductKindCourse ProductKind = "course"
	ProductKindAddon  ProductKind = "addon"
)

// ProductRef points at the thing a registration key unlocks.
type ProductRef struct {
	Kind ProductKind `json:"kind"`
	ID   string      `json:"id"`
}

func (p ProductRef) IsCourse() bool { return p.Kind == ProductKindCourse }

func (p ProductRef) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return domain.ErrInvalidArgument
	}
	switch p.Kind {
	case ProductKindCourse, ProductKindAddon:
		return nil
	default:
		return domain.ErrInvalidArgument
	}
}

// RegistrationKey is a single-use token bound to a product and, once
// redeemed, to an email.
//
// BoundEmail is non-nil iff State is activated, except for deactivated keys
// that were activated before, which keep their email as history.
type RegistrationKey struct {
	ID            string
	Code          string
	Product       ProductRef
	State         KeyState
	BoundEmail    *string
	Price         *int64
	Notes         *string
	CreatedAt     time.Time
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
}

// NewRegistrationKey builds a key in the issued state.
func NewRegistrationKey(code string, product ProductRef, notes *string, price *int64) (*RegistrationKey, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if price != nil && *price < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &RegistrationKey{
		ID:        ulid.Make().String(),
		Code:      code,
		Product:   product,
		State:     KeyStateIssued,
		Price:     price,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// BoundTo reports whether the key is bound to email (case-insensitive).
func (k *RegistrationKey) BoundTo(email string) bool {
	if k.BoundEmail == nil {
		return false
	}
	return strings.EqualFold(*k.BoundEmail, NormalizeEmail(email))
}

// NormalizeCode trims and upper-cases a key code as typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
