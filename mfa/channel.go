package mfa

import (
	"regexp"
	"strings"
)

// Kind is the delivery mechanism of a multifactor method.
type Kind string

const (
	KindSMS   Kind = "sms"
	KindEmail Kind = "email"
)

// SupportedKinds lists every kind in a stable order. Repositories sync it
// into their enum table.
var SupportedKinds = []Kind{KindSMS, KindEmail}

var (
	phonePattern = regexp.MustCompile(`^\+([1-9]\d{0,3})(\d{7,})$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ParseKind normalizes s and reports ErrUnsupportedMethod for unknown kinds.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSMS, KindEmail:
		return k, nil
	default:
		return "", ErrUnsupportedMethod
	}
}

// Channel is a kind plus the contact the code is delivered to.
type Channel struct {
	Kind    Kind
	Contact string
}

// NewChannel validates contact against the format of kind.
func NewChannel(kind Kind, contact string) (Channel, error) {
	kind, err := ParseKind(string(kind))
	if err != nil {
		return Channel{}, err
	}

	contact = strings.TrimSpace(contact)
	var ok bool
	switch kind {
	case KindSMS:
		ok = phonePattern.MatchString(contact)
	case KindEmail:
		contact = strings.ToLower(contact)
		ok = emailPattern.MatchString(contact)
	}
	if !ok {
		return Channel{}, ErrInvalidContact.WithDetail("contact", string(kind)+" contact is malformed")
	}

	return Channel{Kind: kind, Contact: contact}, nil
}

// SameContact reports whether two channels deliver to the same contact,
// regardless of kind.
func (c Channel) SameContact(other Channel) bool {
	return strings.EqualFold(c.Contact, other.Contact)
}
