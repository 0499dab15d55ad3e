package goIdentity

import (
	"errors"

	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/user"
)

// Infrastructure and wiring errors. Domain failures are *domainerr.Error
// values exported by the user, mfa and session packages; branch on them
// with errors.Is or domainerr.KeyOf.
var (
	// ErrEngineNotReady is returned by every method of a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserNotFound is returned when an operation names an unknown account.
	ErrUserNotFound = user.ErrNotFound
	// ErrTokenInvalid is returned by ValidateAccess for tokens that fail
	// signature or claim checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrInvalidRouteMode is returned for an unknown ValidationMode.
	ErrInvalidRouteMode = errors.New("invalid route validation mode")
	// ErrStrictBackendDown is returned by strict validation when the session
	// backend cannot be read.
	ErrStrictBackendDown = errors.New("strict validation backend unavailable")
	// ErrSessionCreationFailed wraps failures issuing a session after the
	// credentials were accepted.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed wraps failures revoking sessions after an
	// account change.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrNotificationFailed wraps Notifier failures.
	ErrNotificationFailed = errors.New("notification delivery failed")
	// ErrEventDelivery wraps event handler failures of an operation that
	// otherwise succeeded.
	ErrEventDelivery = flows.ErrEventDelivery
)
