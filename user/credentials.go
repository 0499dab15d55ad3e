package user

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email is a normalized, validated address.
type Email struct {
	value string
}

// NewEmail trims and lowercases raw before validating it.
func NewEmail(raw string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(v) {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: v}, nil
}

func (e Email) String() string         { return e.value }
func (e Email) Equal(other Email) bool { return e.value == other.value }

// Password holds either a raw value that passed the complexity rules or a
// hash produced by a PasswordService.
type Password struct {
	value   string
	secured bool
}

// NewPassword validates a raw password.
func NewPassword(raw string) (Password, error) {
	if err := checkComplexity(raw); err != nil {
		return Password{}, err
	}
	return Password{value: raw}, nil
}

// SecuredPassword wraps an existing hash. Complexity rules do not apply.
func SecuredPassword(hash string) (Password, error) {
	if hash == "" {
		return Password{}, ErrInvalidPassword.WithDetail("password", "empty hash")
	}
	return Password{value: hash, secured: true}, nil
}

// Secured reports whether the value is a hash.
func (p Password) Secured() bool { return p.secured }

// Hash returns the stored hash, or "" while the password is still raw.
func (p Password) Hash() string {
	if !p.secured {
		return ""
	}
	return p.value
}

func (p Password) secure(ctx context.Context, passwords PasswordService) (Password, error) {
	if p.secured {
		return p, nil
	}
	hash, err := passwords.Secure(ctx, p.value)
	if err != nil {
		return Password{}, err
	}
	return SecuredPassword(hash)
}

func checkComplexity(raw string) error {
	var upper, lower, digit, special bool
	for _, r := range raw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(`!@#$%^&*(),.?":{}|<>_-+=/\`, r):
			special = true
		}
	}

	err := ErrInvalidPassword
	if len(raw) < minPasswordLength {
		err = err.WithDetail("password", "must be at least 8 characters")
	}
	if !upper {
		err = err.WithDetail("password", "must contain an uppercase letter")
	}
	if !lower {
		err = err.WithDetail("password", "must contain a lowercase letter")
	}
	if !digit {
		err = err.WithDetail("password", "must contain a digit")
	}
	if !special {
		err = err.WithDetail("password", "must contain a special character")
	}
	if len(err.Details) > 0 {
		return err
	}
	return nil
}
