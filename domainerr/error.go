// Package domainerr defines the keyed error model shared by the identity
// aggregates.
//
// Every domain failure carries a stable machine-readable Key plus a human
// message, and belongs to one of two classes: business errors (the operation
// is not permitted in the current state) and validation errors (the caller's
// input is unacceptable). Transports map the two classes to different
// externally visible responses and branch on Key, never on message text.
package domainerr

import (
	"errors"
	"strings"
)

// Class separates business failures from caller-input failures.
type Class uint8

const (
	// ClassBusiness marks an operation that is not permitted in the current state.
	ClassBusiness Class = iota + 1
	// ClassValidation marks caller input that failed validation.
	ClassValidation
)

// String returns the wire name of the class.
func (c Class) String() string {
	switch c {
	case ClassBusiness:
		return "NO_VALID_OPERATION_ERROR"
	case ClassValidation:
		return "VALIDATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// ErrNotConfigured is returned when an operation runs on an aggregate that
// was never created or rebuilt through its constructor. It signals a
// programming mistake and intentionally never matches a domain key.
var ErrNotConfigured = errors.New("domainerr: aggregate used before configuration")

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a keyed domain failure.
//
// Two errors are equal under errors.Is when Scope and Key match, so a copy
// enriched with details still matches its package-level sentinel.
type Error struct {
	Class   Class        `json:"-"`
	Scope   string       `json:"scope"`
	Key     string       `json:"key"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// Business builds a business-class error.
func Business(scope, key, message string) *Error {
	return &Error{Class: ClassBusiness, Scope: scope, Key: key, Message: message}
}

// Validation builds a validation-class error.
func Validation(scope, key, message string) *Error {
	return &Error{Class: ClassValidation, Scope: scope, Key: key, Message: message}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.Grow(len(e.Scope) + len(e.Key) + len(e.Message) + 4)
	if e.Scope != "" {
		b.WriteString(e.Scope)
		b.WriteString(": ")
	}
	b.WriteString(e.Key)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, d := range e.Details {
		b.WriteString("; ")
		b.WriteString(d.Field)
		b.WriteString(": ")
		b.WriteString(d.Message)
	}
	return b.String()
}

// Is reports whether target is a domain error with the same scope and key.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Key == t.Key && e.Scope == t.Scope
}

// WithDetail returns a copy of e carrying an additional field error.
func (e *Error) WithDetail(field, message string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Details = append(append([]FieldError(nil), e.Details...), FieldError{Field: field, Message: message})
	return &cp
}

// KeyOf returns the domain key carried by err, or "" when err is not a
// domain error.
func KeyOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Key
	}
	return ""
}

// ClassOf returns the class carried by err, or zero when err is not a domain
// error.
func ClassOf(err error) Class {
	var de *Error
	if errors.As(err, &de) {
		return de.Class
	}
	return 0
}

// IsValidation reports whether err is a validation-class domain error.
func IsValidation(err error) bool {
	return ClassOf(err) == ClassValidation
}

// IsBusiness reports whether err is a business-class domain error.
func IsBusiness(err error) bool {
	return ClassOf(err) == ClassBusiness
}
