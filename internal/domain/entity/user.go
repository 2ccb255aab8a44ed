package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oksasatya/user-accounts-api/internal/domain/service"
	"github.com/oksasatya/user-accounts-api/internal/domain/valueobject"
)

const maxNameLength = 255

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrAlreadyActive   = errors.New("user is already active")
	ErrAlreadyInactive = errors.New("user is already inactive")
)

// User is the aggregate root for the accounts domain.
// ID stays zero until the repository persists the user.
type User struct {
	ID        int64
	Name      string
	Email     valueobject.EmailAddress
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewUser(name string, email valueobject.EmailAddress, active bool, now time.Time) (*User, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &User{
		Name:      name,
		Email:     email,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name cannot exceed %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

func (u *User) IsActive() bool { return u.Active }

// Rename validates and assigns a new name, trimming surrounding whitespace.
// The entity is left unchanged when validation fails.
func (u *User) Rename(newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}
	u.Name = strings.TrimSpace(newName)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate marks the user active. Fails with ErrAlreadyActive when the
// activation policy forbids the transition.
func (u *User) Activate() error {
	if !service.CanActivate(u) {
		return ErrAlreadyActive
	}
	u.Active = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate marks the user inactive. Fails with ErrAlreadyInactive when the
// activation policy forbids the transition.
func (u *User) Deactivate() error {
	if !service.CanDeactivate(u) {
		return ErrAlreadyInactive
	}
	u.Active = false
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// ChangeEmail assigns a new, already validated email address.
func (u *User) ChangeEmail(email valueobject.EmailAddress) {
	u.Email = email
	u.UpdatedAt = time.Now().UTC()
}
