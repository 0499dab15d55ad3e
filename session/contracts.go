package session

import (
	"context"
	"time"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Generate(sessionID string, subject Subject, ttl time.Duration) (string, error)
}

// Fingerprinter derives device identity from the request context.
type Fingerprinter interface {
	// Hash returns the stable key for the current device.
	Hash(ctx context.Context) (string, error)
	// Encrypted returns the sealed device context stored with the session.
	Encrypted(ctx context.Context) (string, error)
}

// Manager persists sessions keyed by user and fingerprint hash.
type Manager interface {
	StartSession(ctx context.Context, userID string, data Data, fingerprintHash string) error
	RevokeSession(ctx context.Context, userID, fingerprintHash string) error
	GetAll(ctx context.Context, userID string) (map[string]Data, error)
}

// Rotator is implemented by managers that can swap a session atomically.
// RotateSession replaces the session stored under fingerprintHash only when
// its ID is still previousSessionID, and returns ErrRotationConflict
// otherwise.
type Rotator interface {
	RotateSession(ctx context.Context, userID, fingerprintHash, previousSessionID string, next Data) error
}

// BulkRevoker is implemented by managers that can drop every session of a
// user in one call.
type BulkRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}
