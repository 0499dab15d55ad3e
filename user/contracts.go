package user

import "context"

// PasswordService hashes and checks credentials.
type PasswordService interface {
	Secure(ctx context.Context, plain string) (string, error)
	Check(ctx context.Context, plain, hash string) (bool, error)
}

// PasswordUpgrader is implemented by password services whose hashes can
// fall behind the current parameters.
type PasswordUpgrader interface {
	NeedsUpgrade(hash string) (bool, error)
}

// LoginThrottle counts failed logins per account within a window.
type LoginThrottle interface {
	HasExceededAttemptLimit(ctx context.Context, userID string) (bool, error)
	RecordFailedAttempt(ctx context.Context, userID string) error
	ResetAttempts(ctx context.Context, userID string) error
}

// UserBlocker holds the temporary block window, independent of the
// attempt counter.
type UserBlocker interface {
	BlockUser(ctx context.Context, userID string) error
	IsTemporarilyBlockedYet(ctx context.Context, userID string) (bool, error)
}

// VerificationService tracks the in-flight email verification challenge.
//
// ValidateVerificationCode consumes the challenge whatever the outcome and
// reports false for both a wrong and an expired code.
type VerificationService interface {
	IsVerificationInProgress(ctx context.Context, userID string) (bool, error)
	ValidateVerificationCode(ctx context.Context, userID, code string) (bool, error)
	InitializeUserVerification(ctx context.Context, userID string) (string, error)
}

// Repository persists accounts. Email uniqueness is enforced here.
type Repository interface {
	Save(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
