package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/user"
)

// Refresh rotates the session of the device in ctx and returns a new token
// pair. The owner is read from the refresh token itself.
//
// A token that does not match the stored session revokes that session and
// yields session.ErrInvalidRefreshToken; so does losing a concurrent
// rotation race. Deleted and blocked accounts cannot refresh.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (session.AccessToken, error) {
	if err := e.ready(); err != nil {
		return session.AccessToken{}, err
	}

	userID, err := internal.DecodeRefreshToken(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return session.AccessToken{}, session.ErrInvalidRefreshToken
	}

	account, err := e.flows.Load(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		e.metricInc(MetricRefreshFailure)
		return session.AccessToken{}, session.ErrInvalidRefreshToken
	}
	if err != nil {
		return session.AccessToken{}, err
	}
	switch account.Status() {
	case user.StatusDeleted:
		e.metricInc(MetricRefreshFailure)
		return session.AccessToken{}, user.ErrUserDeleted
	case user.StatusBlocked:
		e.metricInc(MetricRefreshFailure)
		return session.AccessToken{}, user.ErrUserBlocked
	}

	sessions, err := e.loadSessions(ctx, userID)
	if err != nil {
		return session.AccessToken{}, err
	}
	token, err := sessions.RefreshSession(ctx, e.tokens, e.sessions, e.fingerprints, accountSubject(account), refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			e.metricInc(MetricRefreshReuseDetected)
			e.logger.Warn().Str("user_id", userID).Str("operation", "refresh").Msg("refresh token mismatch, session revoked")
		}
		return session.AccessToken{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	return token, nil
}

// Logout closes the session of the device in ctx. It yields
// session.ErrSessionClosed when the device has none.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	sessions, err := e.loadSessions(ctx, userID)
	if err != nil {
		return err
	}
	if err := sessions.FinishSession(ctx, e.sessions, e.fingerprints); err != nil {
		return err
	}
	e.metricInc(MetricLogout)
	return nil
}

// LogoutAll closes every session of the account.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	sessions, err := e.loadSessions(ctx, userID)
	if err != nil {
		return err
	}
	if err := sessions.FinishAll(ctx, e.sessions); err != nil {
		return err
	}
	e.metricInc(MetricLogoutAll)
	return nil
}

// ListSessions returns the open sessions of the account, newest first.
func (e *Engine) ListSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	sessions, err := e.loadSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	var current string
	if _, ok := DeviceFromContext(ctx); ok {
		current, _ = e.fingerprints.Hash(ctx)
	}

	entries := sessions.Sessions()
	out := make([]SessionInfo, 0, len(entries))
	for _, entry := range entries {
		info := SessionInfo{
			SessionID: entry.SessionID,
			CreatedAt: time.Unix(entry.CreatedAt, 0).UTC(),
			ExpiresAt: time.Unix(entry.ExpiresAt, 0).UTC(),
			Current:   current != "" && entry.FingerprintHash == current,
		}
		if device, err := e.fingerprints.Decrypt(entry.Fingerprint); err == nil {
			info.Device = device
		} else {
			e.logger.Debug().Err(err).Str("user_id", userID).Str("session_id", entry.SessionID).Msg("session device unreadable")
		}
		out = append(out, info)
	}
	return out, nil
}

// ValidateAccess verifies an access token. ModeJWTOnly checks signature
// and claims; ModeStrict also requires the session the token was issued
// for to still be open, so logout and refresh take effect immediately.
// ModeInherit uses Config.ValidationMode.
func (e *Engine) ValidateAccess(ctx context.Context, token string, mode ValidationMode) (*Identity, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	if mode == ModeInherit {
		mode = e.config.ValidationMode
	}
	if mode != ModeJWTOnly && mode != ModeStrict {
		return nil, ErrInvalidRouteMode
	}

	claims, err := e.tokens.ParseAccess(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	identity := &Identity{
		UserID:    claims.UID,
		Email:     claims.Email,
		FullName:  claims.Name,
		Status:    user.Status(claims.Status),
		SessionID: claims.SessionID(),
		Mode:      mode,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	if mode == ModeStrict {
		sessions, err := e.loadSessions(ctx, claims.UID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStrictBackendDown, err)
		}
		if _, ok := sessions.FindBySessionID(claims.SessionID()); !ok {
			return nil, session.ErrNotAuthenticated
		}
	}

	return identity, nil
}
