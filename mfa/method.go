package mfa

import (
	"crypto/subtle"
	"time"

	"github.com/MrEthical07/goIdentity/domainerr"
	"github.com/google/uuid"
)

// Method is one registered multifactor channel.
//
// A Method is not safe for concurrent use. It lives inside a single
// request-scoped account.
type Method struct {
	id         string
	channel    Channel
	active     bool
	verified   bool
	status     Status
	code       Code
	lastUsedAt time.Time
	policy     Policy
}

// Params is the persisted state of a Method.
type Params struct {
	ID            string
	Kind          Kind
	Contact       string
	Active        bool
	Verified      bool
	Status        Status
	Code          string
	CodeExpiresAt time.Time
	LastUsedAt    time.Time
}

// Create registers a new inactive, unverified method.
func Create(kind Kind, contact string, policy Policy) (*Method, error) {
	channel, err := NewChannel(kind, contact)
	if err != nil {
		return nil, err
	}
	return &Method{
		id:      uuid.NewString(),
		channel: channel,
		status:  StatusNotStarted,
		policy:  policy.normalized(),
	}, nil
}

// Build rehydrates a method from persisted state.
func Build(p Params, policy Policy) (*Method, error) {
	if p.ID == "" {
		return nil, domainerr.ErrNotConfigured
	}
	channel, err := NewChannel(p.Kind, p.Contact)
	if err != nil {
		return nil, err
	}
	status := p.Status
	if status == "" {
		status = StatusNotStarted
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}

	return &Method{
		id:         p.ID,
		channel:    channel,
		active:     p.Active,
		verified:   p.Verified,
		status:     status,
		code:       Code{Value: p.Code, ExpiresAt: p.CodeExpiresAt},
		lastUsedAt: p.LastUsedAt,
		policy:     policy.normalized(),
	}, nil
}

func (m *Method) ready() error {
	if m == nil || m.id == "" {
		return domainerr.ErrNotConfigured
	}
	return nil
}

// StartVerification issues the code that proves ownership of the contact.
func (m *Method) StartVerification() (Code, error) {
	if err := m.ready(); err != nil {
		return Code{}, err
	}
	if m.verified {
		return Code{}, ErrAlreadyVerified
	}
	return m.generate()
}

// CompleteVerification marks the method verified once code matches the one
// issued by StartVerification.
func (m *Method) CompleteVerification(code string) error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.verified {
		return ErrAlreadyVerified
	}
	if m.code.IsZero() {
		return ErrNotInitialized
	}
	if m.code.ExpiredAt(m.policy.Now()) {
		m.code = Code{}
		return ErrExpiredCode
	}
	if !codesMatch(m.code.Value, code) {
		return ErrInvalidCode
	}

	m.verified = true
	m.code = Code{}
	return nil
}

// Activate makes a verified method the one challenged during login.
func (m *Method) Activate() error {
	if err := m.ready(); err != nil {
		return err
	}
	if !m.verified {
		return ErrNotVerified
	}
	if m.active {
		return ErrAlreadyActive
	}
	m.active = true
	return nil
}

// Deactivate stops challenging this method during login.
func (m *Method) Deactivate() error {
	if err := m.ready(); err != nil {
		return err
	}
	if !m.active {
		return ErrNotActive
	}
	m.active = false
	m.status = StatusNotStarted
	m.code = Code{}
	return nil
}

// Initialize issues a login challenge code.
func (m *Method) Initialize() (Code, error) {
	if err := m.ready(); err != nil {
		return Code{}, err
	}
	if m.status == StatusAuthenticated {
		return Code{}, ErrAlreadyAuthenticated
	}
	if !m.active {
		return Code{}, ErrNotActive
	}
	if m.status == StatusInitialized {
		return Code{}, ErrCodeInProgress
	}
	return m.challenge()
}

// Reinitialize replaces a lapsed login challenge code. A challenge whose
// code is still valid is left alone and reported as CODE_IN_PROGRESS.
func (m *Method) Reinitialize() (Code, error) {
	if err := m.ready(); err != nil {
		return Code{}, err
	}
	if !m.active {
		return Code{}, ErrNotActive
	}
	if m.status != StatusInitialized {
		return Code{}, ErrNotInitialized
	}
	if !m.CodeExpired() {
		return Code{}, ErrCodeInProgress
	}
	return m.challenge()
}

// Validate checks code against the pending login challenge. A lapsed code
// always expires the challenge, even when the value matches.
func (m *Method) Validate(code string) error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.status != StatusInitialized {
		return ErrNotInitialized
	}
	if m.CodeExpired() {
		m.status = StatusExpired
		m.code = Code{}
		return ErrExpiredCode
	}
	if !codesMatch(m.code.Value, code) {
		m.status = StatusFailed
		m.code = Code{}
		return ErrInvalidCode
	}

	m.status = StatusAuthenticated
	m.code = Code{}
	return nil
}

// Consume resets a passed challenge once the login it guarded completed, so
// the next login is challenged again.
func (m *Method) Consume() error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.status == StatusAuthenticated {
		m.status = StatusNotStarted
	}
	return nil
}

// CodeExpired reports whether the held code is missing or lapsed.
func (m *Method) CodeExpired() bool {
	if m == nil {
		return true
	}
	return m.code.ExpiredAt(m.policy.Now())
}

func (m *Method) challenge() (Code, error) {
	code, err := m.generate()
	if err != nil {
		return Code{}, err
	}
	m.lastUsedAt = m.policy.Now()
	m.status = StatusInitialized
	return code, nil
}

func (m *Method) generate() (Code, error) {
	code, err := m.policy.newCode()
	if err != nil {
		return Code{}, err
	}
	m.code = code
	return code, nil
}

func codesMatch(stored, provided string) bool {
	if stored == "" || len(stored) != len(provided) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}

func (m *Method) ID() string          { return m.id }
func (m *Method) Channel() Channel    { return m.channel }
func (m *Method) Kind() Kind          { return m.channel.Kind }
func (m *Method) Contact() string     { return m.channel.Contact }
func (m *Method) Active() bool        { return m.active }
func (m *Method) Verified() bool      { return m.verified }
func (m *Method) Status() Status      { return m.status }
func (m *Method) LastUsed() time.Time { return m.lastUsedAt }

// PendingCode returns the held code, if any, for delivery.
func (m *Method) PendingCode() (Code, bool) {
	if m == nil || m.code.IsZero() {
		return Code{}, false
	}
	return m.code, true
}

// Params exposes the method state for persistence.
func (m *Method) Params() Params {
	return Params{
		ID:            m.id,
		Kind:          m.channel.Kind,
		Contact:       m.channel.Contact,
		Active:        m.active,
		Verified:      m.verified,
		Status:        m.status,
		Code:          m.code.Value,
		CodeExpiresAt: m.code.ExpiresAt,
		LastUsedAt:    m.lastUsedAt,
	}
}
