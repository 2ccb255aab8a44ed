package valueobject

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidEmail is returned when an email string is empty or malformed.
var ErrInvalidEmail = errors.New("invalid email format")

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EmailAddress is an immutable value object holding a validated email string.
// The zero value is invalid; construct with NewEmailAddress.
type EmailAddress struct {
	value string
}

func NewEmailAddress(raw string) (EmailAddress, error) {
	if raw == "" {
		return EmailAddress{}, fmt.Errorf("%w: email cannot be empty", ErrInvalidEmail)
	}
	if !emailPattern.MatchString(raw) {
		return EmailAddress{}, fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return EmailAddress{value: raw}, nil
}

// String returns the stored value verbatim.
func (e EmailAddress) String() string { return e.value }

// Equal compares two email addresses by value.
func (e EmailAddress) Equal(other EmailAddress) bool { return e.value == other.value }
