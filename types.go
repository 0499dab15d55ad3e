package goIdentity

import (
	"time"

	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/user"
)

// LoginResult is returned by Login and ConfirmMultifactor.
//
// Token is set only when Outcome is user.OutcomeAuthenticated. Challenge
// is set when the login is paused for a multifactor code; the code has
// already been sent through the Notifier.
type LoginResult struct {
	Outcome   user.Outcome
	UserID    string
	Token     *session.AccessToken
	Challenge *user.Challenge
	// RetryAfter is what is left of the block window when the login failed
	// with user.ErrUserBlocked.
	RetryAfter time.Duration
}

// Authenticated reports whether a session was issued.
func (r LoginResult) Authenticated() bool {
	return r.Outcome == user.OutcomeAuthenticated && r.Token != nil
}

// PendingError returns the keyed pause error for a paused login, or nil.
func (r LoginResult) PendingError() error {
	return user.AuthResult{Outcome: r.Outcome}.PendingError()
}

// Identity is the validated content of an access token.
type Identity struct {
	UserID    string
	Email     string
	FullName  string
	Status    user.Status
	SessionID string
	ExpiresAt time.Time
	Mode      ValidationMode
}

// SessionInfo describes one open session for session-management screens.
// Device is empty when the stored fingerprint cannot be decrypted.
type SessionInfo struct {
	SessionID string
	Device    Device
	CreatedAt time.Time
	ExpiresAt time.Time
	// Current is true for the session of the device in the request context.
	Current bool
}
