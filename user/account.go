package user

import (
	"context"
	"time"

	"github.com/MrEthical07/goIdentity/domainerr"
	"github.com/MrEthical07/goIdentity/event"
	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/google/uuid"
)

// MaxMultifactorMethods caps the methods one account may register.
const MaxMultifactorMethods = 3

// Account is the user aggregate root.
//
// An Account is rebuilt for every request and is not safe for concurrent
// use. Operations queue domain events; callers drain them with PullEvents
// after persisting the account.
type Account struct {
	id          string
	email       Email
	password    Password
	status      Status
	information Information
	methods     []*mfa.Method
	createdAt   time.Time

	policy mfa.Policy
	events event.Recorder

	// set by a successful password check; allows RehashPassword
	passwordChecked bool
}

// Params is the persisted state of an Account.
type Params struct {
	ID           string
	Email        string
	PasswordHash string
	Status       Status
	Information  Information
	Multifactor  []mfa.Params
	CreatedAt    time.Time
}

// Option configures an Account at creation or rebuild time.
type Option func(*Account)

// WithMultifactorPolicy sets the code policy applied to every method.
func WithMultifactorPolicy(p mfa.Policy) Option {
	return func(a *Account) {
		now := a.policy.Now
		a.policy = p
		if a.policy.Now == nil {
			a.policy.Now = now
		}
	}
}

// WithClock replaces the clock used for timestamps and code expiry.
func WithClock(now func() time.Time) Option {
	return func(a *Account) {
		if now != nil {
			a.policy.Now = now
		}
	}
}

func newAccount(opts []Option) *Account {
	a := &Account{policy: mfa.DefaultPolicy()}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Create registers a new unverified account and secures its password.
func Create(ctx context.Context, passwords PasswordService, email, password string, opts ...Option) (*Account, error) {
	e, err := NewEmail(email)
	if err != nil {
		return nil, err
	}
	p, err := NewPassword(password)
	if err != nil {
		return nil, err
	}

	a := newAccount(opts)
	a.id = uuid.NewString()
	a.email = e
	a.status = StatusUnverified
	a.createdAt = a.policy.Now().UTC()

	a.password, err = p.secure(ctx, passwords)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Build rehydrates an account from persisted state.
func Build(p Params, opts ...Option) (*Account, error) {
	if p.ID == "" {
		return nil, domainerr.ErrNotConfigured
	}
	e, err := NewEmail(p.Email)
	if err != nil {
		return nil, err
	}
	pw, err := SecuredPassword(p.PasswordHash)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(string(p.Status))
	if err != nil {
		return nil, err
	}

	a := newAccount(opts)
	a.id = p.ID
	a.email = e
	a.password = pw
	a.status = status
	a.information = p.Information
	a.createdAt = p.CreatedAt

	for _, mp := range p.Multifactor {
		m, err := mfa.Build(mp, a.policy)
		if err != nil {
			return nil, err
		}
		a.methods = append(a.methods, m)
	}
	return a, nil
}

func (a *Account) ready() error {
	if a == nil || a.id == "" {
		return domainerr.ErrNotConfigured
	}
	return nil
}

// ID returns the immutable account identifier.
func (a *Account) ID() string { return a.id }

// Email returns the normalized email.
func (a *Account) Email() string { return a.email.String() }

// Status returns the current lifecycle status.
func (a *Account) Status() Status { return a.status }

// Information returns the profile.
func (a *Account) Information() Information { return a.information }

// FullName returns the profile's display name.
func (a *Account) FullName() string { return a.information.FullName() }

// CreatedAt returns when the account was registered.
func (a *Account) CreatedAt() time.Time { return a.createdAt }

// MultifactorMethods returns the registered methods in registration order.
func (a *Account) MultifactorMethods() []*mfa.Method {
	return append([]*mfa.Method(nil), a.methods...)
}

// PendingEvents returns the queued events without draining them.
func (a *Account) PendingEvents() []event.Event { return a.events.Pending() }

// PullEvents drains the queued events.
func (a *Account) PullEvents() []event.Event { return a.events.Pull() }

// Params exposes the account state for persistence.
func (a *Account) Params() Params {
	p := Params{
		ID:           a.id,
		Email:        a.email.String(),
		PasswordHash: a.password.Hash(),
		Status:       a.status,
		Information:  a.information,
		CreatedAt:    a.createdAt,
	}
	for _, m := range a.methods {
		p.Multifactor = append(p.Multifactor, m.Params())
	}
	return p
}

func (a *Account) is(s Status) bool { return a.status == s }

func (a *Account) setStatus(s Status) {
	a.status = s
	a.events.Record(event.UserStatusChanged{UserID: a.id, Status: string(s)})
}

func (a *Account) activeMethod() *mfa.Method {
	for _, m := range a.methods {
		if m.Active() {
			return m
		}
	}
	return nil
}
