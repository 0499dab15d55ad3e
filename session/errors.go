package session

import (
	"errors"

	"github.com/MrEthical07/goIdentity/domainerr"
)

const scope = "sessions"

var (
	ErrNotAuthenticated    = domainerr.Business(scope, "NOT_AUTHENTICATED", "no session for this token")
	ErrSessionClosed       = domainerr.Business(scope, "SESSION_CLOSED", "no open session for this device")
	ErrInvalidRefreshToken = domainerr.Business(scope, "INVALID_REFRESH_TOKEN", "refresh token does not match")
	ErrBadBuiltSession     = domainerr.Business(scope, "BAD_BUILT_SESSION", "session could not be built")
)

var (
	// ErrRedisUnavailable indicates the session backend is unreachable.
	ErrRedisUnavailable = errors.New("session redis unavailable")
	// ErrRotationConflict is returned by a Rotator when the stored session
	// changed since it was read.
	ErrRotationConflict = errors.New("session rotation conflict")
	// ErrCorruptSession is returned by Decode for malformed records.
	ErrCorruptSession = errors.New("session record corrupt")
)
