package user

import (
	"context"

	"github.com/MrEthical07/goIdentity/event"
)

// RequestVerification asks for an email verification code. The code itself
// is generated and stored by whoever handles the queued
// InitializedUserVerification event.
func (a *Account) RequestVerification(ctx context.Context, verifications VerificationService) error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.is(StatusVerified) {
		return ErrUserAlreadyVerified
	}

	inProgress, err := verifications.IsVerificationInProgress(ctx, a.id)
	if err != nil {
		return err
	}
	if inProgress {
		return ErrVerificationInProgress
	}

	a.events.Record(event.InitializedUserVerification{UserID: a.id, Email: a.email.String()})
	return nil
}

// VerifyUser consumes the verification challenge and marks the account
// Verified when code matched. A wrong and an expired code are reported the
// same way.
func (a *Account) VerifyUser(ctx context.Context, verifications VerificationService, code string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.is(StatusVerified) {
		return ErrUserAlreadyVerified
	}

	ok, err := verifications.ValidateVerificationCode(ctx, a.id, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidVerificationCode
	}

	a.setStatus(StatusVerified)
	return nil
}
