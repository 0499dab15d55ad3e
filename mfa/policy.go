package mfa

import (
	"time"

	"github.com/MrEthical07/goIdentity/internal"
)

const (
	defaultCodeTTL    = 5 * time.Minute
	defaultCodeDigits = 6
)

// Policy controls code generation for every method of an account.
type Policy struct {
	CodeTTL    time.Duration
	CodeDigits int

	// Now is the clock used for expiry and lastUsedAt. Nil means time.Now.
	Now func() time.Time
}

// DefaultPolicy returns six-digit codes valid for five minutes.
func DefaultPolicy() Policy {
	return Policy{CodeTTL: defaultCodeTTL, CodeDigits: defaultCodeDigits, Now: time.Now}
}

func (p Policy) normalized() Policy {
	if p.CodeTTL <= 0 {
		p.CodeTTL = defaultCodeTTL
	}
	if p.CodeDigits == 0 {
		p.CodeDigits = defaultCodeDigits
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return p
}

func (p Policy) newCode() (Code, error) {
	value, err := internal.NewNumericCode(p.CodeDigits)
	if err != nil {
		return Code{}, err
	}
	return Code{Value: value, ExpiresAt: p.Now().Add(p.CodeTTL)}, nil
}

// Code is a time-boxed numeric secret.
type Code struct {
	Value     string
	ExpiresAt time.Time
}

// IsZero reports whether no code is held.
func (c Code) IsZero() bool {
	return c.Value == ""
}

// ExpiredAt reports whether the code is missing or lapsed at now.
func (c Code) ExpiredAt(now time.Time) bool {
	return c.IsZero() || !now.Before(c.ExpiresAt)
}
