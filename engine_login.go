package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/user"
)

// Login checks email and password and either issues a session for the
// device in ctx or pauses for a multifactor code.
//
// An unknown or malformed email yields user.ErrInvalidCredentials, like a
// wrong password. Failed attempts are counted per account; the attempt
// that reaches the limit blocks the account and yields user.ErrUserBlocked,
// with RetryAfter set to what is left of the block window.
//
// A paused login returns Outcome user.OutcomeMFARequired (or
// OutcomeMFAReinitialized when the previous code lapsed) with a nil error;
// the code was sent through the Notifier. A login made while a code is
// still live fails with mfa.ErrCodeInProgress.
func (e *Engine) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}

	parsed, err := user.NewEmail(email)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return LoginResult{}, user.ErrInvalidCredentials
	}
	account, err := e.flows.LoadByEmail(ctx, parsed.String())
	if errors.Is(err, user.ErrNotFound) {
		e.metricInc(MetricLoginFailure)
		return LoginResult{}, user.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}

	var auth user.AuthResult
	err = e.flows.Apply(ctx, account, flows.PersistOnChange, func(a *user.Account) error {
		var err error
		auth, err = a.Authenticate(ctx, e.throttle, e.passwords, e.blocker, password)
		if err == nil && e.config.Password.UpgradeOnLogin {
			e.upgradePassword(ctx, a, password)
		}
		return err
	})
	if err != nil && !e.tolerable(err, auth) {
		e.loginFailed(account.ID(), err)
		result := LoginResult{UserID: account.ID()}
		if errors.Is(err, user.ErrUserBlocked) {
			result.RetryAfter = e.retryAfter(ctx, account.ID())
		}
		return result, e.delivered(err)
	}

	return e.finishLogin(ctx, auth)
}

func (e *Engine) retryAfter(ctx context.Context, userID string) time.Duration {
	left, err := e.blocker.Remaining(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Str("operation", "login").Msg("block window unknown")
		return 0
	}
	return left
}

// ConfirmMultifactor checks the code of a paused login and issues the
// session. The method state is persisted even when the code is wrong or
// lapsed, so each challenge can be answered once.
func (e *Engine) ConfirmMultifactor(ctx context.Context, userID, code string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}

	var auth user.AuthResult
	_, err := e.flows.Run(ctx, userID, flows.PersistAlways, func(a *user.Account) error {
		if err := a.ValidateMultifactorCode(code); err != nil {
			return err
		}
		var err error
		auth, err = a.CompleteMultifactorLogin()
		return err
	})
	if err != nil && !e.tolerable(err, auth) {
		e.metricInc(MetricMFAFailure)
		e.logger.Info().Err(err).Str("user_id", userID).Str("operation", "confirm_multifactor").Msg("multifactor rejected")
		return LoginResult{UserID: userID}, e.delivered(err)
	}

	e.metricInc(MetricMFASuccess)
	return e.finishLogin(ctx, auth)
}

// tolerable reports whether a handler failure after a completed login can
// be logged instead of failing the login. Paused logins are not tolerated:
// the code may not have been delivered.
func (e *Engine) tolerable(err error, auth user.AuthResult) bool {
	if !errors.Is(err, ErrEventDelivery) || auth.Outcome != user.OutcomeAuthenticated {
		return false
	}
	e.metricInc(MetricEventHandlerFailure)
	e.logger.Warn().Err(err).Str("user_id", auth.User.UserID).Msg("login event handlers failed")
	return true
}

func (e *Engine) finishLogin(ctx context.Context, auth user.AuthResult) (LoginResult, error) {
	result := LoginResult{Outcome: auth.Outcome, UserID: auth.User.UserID}

	if auth.Paused() {
		e.metricInc(MetricMFARequired)
		result.Challenge = auth.Challenge
		e.logger.Info().
			Str("user_id", result.UserID).
			Str("operation", "login").
			Str("outcome", auth.Outcome.String()).
			Msg("login paused for multifactor")
		return result, nil
	}

	sessions, err := e.loadSessions(ctx, auth.User.UserID)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrSessionCreationFailed, err)
	}
	token, err := sessions.StartSession(ctx, e.tokens, e.sessions, e.fingerprints, subjectOf(auth.User))
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrSessionCreationFailed, err)
	}

	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricLoginSuccess)
	e.logger.Info().
		Str("user_id", result.UserID).
		Str("operation", "login").
		Str("outcome", auth.Outcome.String()).
		Str("session_id", token.SessionID).
		Msg("session issued")

	result.Token = &token
	return result, nil
}

// upgradePassword replaces an outdated hash. Failures are logged and never
// fail the login.
func (e *Engine) upgradePassword(ctx context.Context, a *user.Account, password string) {
	upgraded, err := a.RehashPassword(ctx, e.passwords, password)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", a.ID()).Str("operation", "login").Msg("password hash upgrade failed")
		return
	}
	if upgraded {
		e.logger.Debug().Str("user_id", a.ID()).Str("operation", "login").Msg("password hash upgraded")
	}
}

func (e *Engine) loginFailed(userID string, err error) {
	if errors.Is(err, user.ErrUserBlocked) {
		e.metricInc(MetricLoginBlocked)
	} else {
		e.metricInc(MetricLoginFailure)
	}
	e.logger.Info().Err(err).Str("user_id", userID).Str("operation", "login").Msg("login rejected")
}
