package user

import (
	"context"
	"time"

	"github.com/MrEthical07/goIdentity/event"
	"github.com/MrEthical07/goIdentity/mfa"
)

// Outcome tags the result of a successful credential check.
type Outcome uint8

const (
	// OutcomeAuthenticated means the login completed.
	OutcomeAuthenticated Outcome = iota + 1
	// OutcomeMFARequired means a multifactor code was sent and the login is
	// paused until it is confirmed.
	OutcomeMFARequired
	// OutcomeMFAReinitialized means the previous multifactor code lapsed and
	// a fresh one was sent.
	OutcomeMFAReinitialized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeMFARequired:
		return "mfa_required"
	case OutcomeMFAReinitialized:
		return "mfa_reinitialized"
	default:
		return "unknown"
	}
}

// AuthenticatedUser is the data handed to session issuance.
type AuthenticatedUser struct {
	UserID   string
	Email    string
	FullName string
	Status   Status
}

// Challenge describes a paused login.
type Challenge struct {
	MethodID  string
	Kind      mfa.Kind
	ExpiresAt time.Time
}

// AuthResult is the tagged result of Authenticate. User is fully populated
// only when Outcome is OutcomeAuthenticated; Challenge only when the login
// is paused.
type AuthResult struct {
	Outcome   Outcome
	User      AuthenticatedUser
	Challenge *Challenge
}

// Paused reports whether the caller must collect a multifactor code.
func (r AuthResult) Paused() bool {
	return r.Outcome == OutcomeMFARequired || r.Outcome == OutcomeMFAReinitialized
}

// PendingError maps a paused result to its keyed error for transports that
// surface the pause as an error response. It returns nil otherwise.
func (r AuthResult) PendingError() error {
	switch r.Outcome {
	case OutcomeMFARequired:
		return ErrMultifactorAuthInitialized
	case OutcomeMFAReinitialized:
		return ErrMultifactorAuthReinitialized
	default:
		return nil
	}
}

// Authenticate checks password and walks the login state machine:
// deleted check, block window, attempt limit, credentials, multifactor
// challenge. Each step short-circuits.
//
// A wrong password is recorded on throttle exactly once. When that failure
// reaches the attempt limit the account is blocked and ErrUserBlocked is
// returned instead of ErrInvalidCredentials.
func (a *Account) Authenticate(ctx context.Context, throttle LoginThrottle, passwords PasswordService, blocker UserBlocker, password string) (AuthResult, error) {
	if err := a.ready(); err != nil {
		return AuthResult{}, err
	}
	if a.is(StatusDeleted) {
		return AuthResult{}, ErrUserDeleted
	}

	if err := a.checkBlocked(ctx, blocker); err != nil {
		return AuthResult{}, err
	}

	exceeded, err := throttle.HasExceededAttemptLimit(ctx, a.id)
	if err != nil {
		return AuthResult{}, err
	}
	if exceeded {
		a.block()
		return AuthResult{}, ErrUserBlocked
	}

	if err := a.checkCredentials(ctx, throttle, passwords, password); err != nil {
		return AuthResult{}, err
	}

	if m := a.activeMethod(); m != nil {
		result, paused, err := a.challenge(m)
		if err != nil || paused {
			return result, err
		}
	}

	return a.authenticated(), nil
}

// CompleteMultifactorLogin finishes a login paused by Authenticate once
// ValidateMultifactorCode succeeded, without a second password round.
func (a *Account) CompleteMultifactorLogin() (AuthResult, error) {
	if err := a.ready(); err != nil {
		return AuthResult{}, err
	}
	switch a.status {
	case StatusDeleted:
		return AuthResult{}, ErrUserDeleted
	case StatusBlocked:
		return AuthResult{}, ErrUserBlocked
	}

	m := a.activeMethod()
	if m == nil {
		return AuthResult{}, ErrNoMultifactorCodeToValidate
	}
	if m.Status() != mfa.StatusAuthenticated {
		return AuthResult{}, mfa.ErrNotInitialized
	}
	if err := m.Consume(); err != nil {
		return AuthResult{}, err
	}
	return a.authenticated(), nil
}

func (a *Account) checkBlocked(ctx context.Context, blocker UserBlocker) error {
	if !a.is(StatusBlocked) {
		return nil
	}
	still, err := blocker.IsTemporarilyBlockedYet(ctx, a.id)
	if err != nil {
		return err
	}
	if still {
		return ErrUserBlocked
	}
	a.unblock()
	return nil
}

func (a *Account) checkCredentials(ctx context.Context, throttle LoginThrottle, passwords PasswordService, password string) error {
	ok, err := passwords.Check(ctx, password, a.password.Hash())
	if err != nil {
		return err
	}
	if ok {
		a.passwordChecked = true
		return nil
	}

	if err := throttle.RecordFailedAttempt(ctx, a.id); err != nil {
		return err
	}
	a.events.Record(event.UserInvalidCredentials{UserID: a.id})

	exceeded, err := throttle.HasExceededAttemptLimit(ctx, a.id)
	if err != nil {
		return err
	}
	if exceeded {
		a.block()
		return ErrUserBlocked
	}
	return ErrInvalidCredentials
}

// challenge runs the multifactor step. paused is true when the login must
// stop and wait for a code.
func (a *Account) challenge(m *mfa.Method) (AuthResult, bool, error) {
	switch m.Status() {
	case mfa.StatusAuthenticated:
		return AuthResult{}, false, m.Consume()

	case mfa.StatusInitialized:
		code, err := m.Reinitialize()
		if err != nil {
			return AuthResult{}, false, err
		}
		return a.paused(m, code, OutcomeMFAReinitialized), true, nil

	default:
		code, err := m.Initialize()
		if err != nil {
			return AuthResult{}, false, err
		}
		return a.paused(m, code, OutcomeMFARequired), true, nil
	}
}

func (a *Account) paused(m *mfa.Method, code mfa.Code, outcome Outcome) AuthResult {
	a.events.Record(event.MultifactorInitialized{
		UserID:        a.id,
		Method:        string(m.Kind()),
		MultifactorID: m.ID(),
	})
	return AuthResult{
		Outcome: outcome,
		User:    AuthenticatedUser{UserID: a.id},
		Challenge: &Challenge{
			MethodID:  m.ID(),
			Kind:      m.Kind(),
			ExpiresAt: code.ExpiresAt,
		},
	}
}

func (a *Account) authenticated() AuthResult {
	a.events.Record(event.UserAuthenticated{UserID: a.id})
	return AuthResult{
		Outcome: OutcomeAuthenticated,
		User: AuthenticatedUser{
			UserID:   a.id,
			Email:    a.email.String(),
			FullName: a.information.FullName(),
			Status:   a.status,
		},
	}
}
