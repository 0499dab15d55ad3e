package goIdentity

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/user"
)

// Register creates an Unverified account and returns its ID. A taken email
// yields user.ErrEmailAlreadyRegistered.
func (e *Engine) Register(ctx context.Context, email, password string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	parsed, err := user.NewEmail(email)
	if err != nil {
		return "", err
	}
	if _, err := e.flows.LoadByEmail(ctx, parsed.String()); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		return "", user.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, user.ErrNotFound) {
		return "", err
	}

	account, err := user.Create(ctx, e.passwords, parsed.String(), password, e.accountOptions...)
	if err != nil {
		return "", err
	}
	if err := e.flows.Commit(ctx, account); err != nil {
		if errors.Is(err, user.ErrEmailAlreadyRegistered) {
			e.metricInc(MetricRegisterDuplicate)
		}
		return "", e.delivered(err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.logger.Info().Str("user_id", account.ID()).Str("operation", "register").Msg("account created")
	return account.ID(), nil
}

// RequestVerification sends an email verification code. A second request
// while a code is live fails with user.ErrVerificationInProgress.
func (e *Engine) RequestVerification(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.flows.Run(ctx, userID, flows.PersistOnChange, func(a *user.Account) error {
		return a.RequestVerification(ctx, e.verifications)
	})
	if err != nil {
		return e.delivered(err)
	}
	e.metricInc(MetricVerificationRequest)
	return nil
}

// VerifyAccount consumes the verification code and marks the account
// Verified. The code can be tried once; a wrong or lapsed code yields
// user.ErrInvalidVerificationCode and a new code must be requested.
func (e *Engine) VerifyAccount(ctx context.Context, userID, code string) error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.flows.Run(ctx, userID, flows.PersistOnChange, func(a *user.Account) error {
		return a.VerifyUser(ctx, e.verifications, code)
	})
	if err != nil {
		if errors.Is(err, user.ErrInvalidVerificationCode) {
			e.metricInc(MetricVerificationFailure)
		}
		return e.delivered(err)
	}
	e.metricInc(MetricVerificationSuccess)
	e.logger.Info().Str("user_id", userID).Str("operation", "verify").Msg("account verified")
	return nil
}

// UpdateAuthentication replaces the email, the password or both. A
// password change closes every session of the account; an email change
// cancels a pending verification code.
func (e *Engine) UpdateAuthentication(ctx context.Context, userID string, email, password *string) error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.flows.Run(ctx, userID, flows.PersistOnChange, func(a *user.Account) error {
		return a.UpdateAuthentication(ctx, e.passwords, email, password)
	})
	if err != nil {
		return e.delivered(err)
	}
	if email != nil && *email != "" {
		e.cancelVerification(ctx, userID)
	}
	if password != nil && *password != "" {
		return e.revokeAll(ctx, userID)
	}
	return nil
}

// cancelVerification drops a code sent to an address the account no longer
// uses. A failure only leaves the code to lapse on its own.
func (e *Engine) cancelVerification(ctx context.Context, userID string) {
	if err := e.verifications.Cancel(ctx, userID); err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Str("operation", "cancel_verification").Msg("pending verification not cancelled")
	}
}

// UpdateInformation replaces the present profile fields.
func (e *Engine) UpdateInformation(ctx context.Context, userID string, update user.InformationUpdate) error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.flows.Run(ctx, userID, flows.PersistOnChange, func(a *user.Account) error {
		return a.UpdateInformation(update)
	})
	return e.delivered(err)
}

// Activate restores an Inactive account.
func (e *Engine) Activate(ctx context.Context, userID string) error {
	return e.changeStatus(ctx, userID, "activate", (*user.Account).Activate, false)
}

// Deactivate parks an account as Inactive and closes its sessions.
func (e *Engine) Deactivate(ctx context.Context, userID string) error {
	err := e.changeStatus(ctx, userID, "deactivate", (*user.Account).Deactivate, true)
	if err == nil {
		e.metricInc(MetricAccountDeactivated)
	}
	return err
}

// Delete marks an account Deleted and closes its sessions. The record is
// kept so the email stays reserved.
func (e *Engine) Delete(ctx context.Context, userID string) error {
	err := e.changeStatus(ctx, userID, "delete", (*user.Account).Delete, true)
	if err == nil {
		e.metricInc(MetricAccountDeleted)
		e.cancelVerification(ctx, userID)
	}
	return err
}

// Unblock lifts a block before its window lapses and clears the block
// marker.
func (e *Engine) Unblock(ctx context.Context, userID string) error {
	return e.changeStatus(ctx, userID, "unblock", (*user.Account).Unblock, false)
}

func (e *Engine) changeStatus(ctx context.Context, userID, operation string, op func(*user.Account) error, closeSessions bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	account, err := e.flows.Run(ctx, userID, flows.PersistOnChange, op)
	if err != nil {
		return e.delivered(err)
	}
	e.logger.Info().
		Str("user_id", userID).
		Str("operation", operation).
		Str("status", string(account.Status())).
		Msg("account status changed")

	if closeSessions {
		return e.revokeAll(ctx, userID)
	}
	return nil
}

func (e *Engine) revokeAll(ctx context.Context, userID string) error {
	sessions, err := e.loadSessions(ctx, userID)
	if err == nil {
		err = sessions.FinishAll(ctx, e.sessions)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionInvalidationFailed, err)
	}
	e.metricInc(MetricSessionInvalidated)
	return nil
}

func (e *Engine) delivered(err error) error {
	if errors.Is(err, ErrEventDelivery) {
		e.metricInc(MetricEventHandlerFailure)
	}
	return err
}
