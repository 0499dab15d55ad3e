package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"sort"

	"github.com/MrEthical07/goIdentity/domainerr"
	"github.com/MrEthical07/goIdentity/internal"
	"github.com/google/uuid"
)

// UserSessions is the set of open sessions of one user, keyed by
// fingerprint hash. It is rebuilt from the Manager on every request and is
// not safe for concurrent use.
type UserSessions struct {
	userID   string
	sessions map[string]Data
	policy   Policy
}

// Load reads the sessions of userID. Lapsed sessions are revoked on the
// way.
func Load(ctx context.Context, manager Manager, userID string, policy Policy) (*UserSessions, error) {
	if userID == "" {
		return nil, ErrBadBuiltSession.WithDetail("userID", "required")
	}
	policy = policy.normalized()

	stored, err := manager.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := policy.Now()
	sessions := make(map[string]Data, len(stored))
	for fp, d := range stored {
		if d.Expired(now) {
			if err := manager.RevokeSession(ctx, userID, fp); err != nil {
				return nil, err
			}
			continue
		}
		sessions[fp] = d
	}

	return &UserSessions{userID: userID, sessions: sessions, policy: policy}, nil
}

func (u *UserSessions) ready() error {
	if u == nil || u.userID == "" || u.sessions == nil {
		return domainerr.ErrNotConfigured
	}
	return nil
}

// UserID returns the owner of the set.
func (u *UserSessions) UserID() string { return u.userID }

// Len returns the number of open sessions.
func (u *UserSessions) Len() int { return len(u.sessions) }

// Session returns the session registered for fingerprintHash.
func (u *UserSessions) Session(fingerprintHash string) (Data, bool) {
	if u == nil {
		return Data{}, false
	}
	d, ok := u.sessions[fingerprintHash]
	return d, ok
}

// FindBySessionID returns the session with the given ID.
func (u *UserSessions) FindBySessionID(sessionID string) (Entry, bool) {
	if u == nil {
		return Entry{}, false
	}
	for fp, d := range u.sessions {
		if d.SessionID == sessionID {
			return Entry{FingerprintHash: fp, Data: d}, true
		}
	}
	return Entry{}, false
}

// Sessions lists open sessions, newest first.
func (u *UserSessions) Sessions() []Entry {
	if u == nil {
		return nil
	}
	out := make([]Entry, 0, len(u.sessions))
	for fp, d := range u.sessions {
		out = append(out, Entry{FingerprintHash: fp, Data: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

// StartSession issues a new session for the current device. A session
// already registered for the device is revoked first.
func (u *UserSessions) StartSession(ctx context.Context, tokens TokenIssuer, manager Manager, fingerprints Fingerprinter, subject Subject) (AccessToken, error) {
	if err := u.ready(); err != nil {
		return AccessToken{}, err
	}
	fp, err := fingerprints.Hash(ctx)
	if err != nil {
		return AccessToken{}, err
	}

	if _, ok := u.sessions[fp]; ok {
		if err := u.revoke(ctx, manager, fp); err != nil {
			return AccessToken{}, err
		}
	}

	s, err := u.build(ctx, tokens, fingerprints, subject)
	if err != nil {
		return AccessToken{}, err
	}
	if err := manager.StartSession(ctx, u.userID, s.Data, fp); err != nil {
		return AccessToken{}, err
	}
	u.sessions[fp] = s.Data
	return s.Token(), nil
}

// RefreshSession rotates the current device's session when refreshToken
// matches it. A mismatched token revokes the session.
func (u *UserSessions) RefreshSession(ctx context.Context, tokens TokenIssuer, manager Manager, fingerprints Fingerprinter, subject Subject, refreshToken string) (AccessToken, error) {
	if err := u.ready(); err != nil {
		return AccessToken{}, err
	}
	fp, err := fingerprints.Hash(ctx)
	if err != nil {
		return AccessToken{}, err
	}

	current, ok := u.sessions[fp]
	if !ok {
		return AccessToken{}, ErrSessionClosed
	}

	provided := internal.HashToken(refreshToken)
	if subtle.ConstantTimeCompare(provided[:], current.RefreshHash[:]) != 1 {
		if err := u.revoke(ctx, manager, fp); err != nil {
			return AccessToken{}, err
		}
		return AccessToken{}, ErrInvalidRefreshToken
	}

	next, err := u.build(ctx, tokens, fingerprints, subject)
	if err != nil {
		return AccessToken{}, err
	}

	if rotator, ok := manager.(Rotator); ok {
		err := rotator.RotateSession(ctx, u.userID, fp, current.SessionID, next.Data)
		if errors.Is(err, ErrRotationConflict) {
			delete(u.sessions, fp)
			return AccessToken{}, ErrInvalidRefreshToken
		}
		if err != nil {
			return AccessToken{}, err
		}
	} else {
		if err := u.revoke(ctx, manager, fp); err != nil {
			return AccessToken{}, err
		}
		if err := manager.StartSession(ctx, u.userID, next.Data, fp); err != nil {
			return AccessToken{}, err
		}
	}

	u.sessions[fp] = next.Data
	return next.Token(), nil
}

// FinishSession closes the current device's session.
func (u *UserSessions) FinishSession(ctx context.Context, manager Manager, fingerprints Fingerprinter) error {
	if err := u.ready(); err != nil {
		return err
	}
	fp, err := fingerprints.Hash(ctx)
	if err != nil {
		return err
	}
	if _, ok := u.sessions[fp]; !ok {
		return ErrSessionClosed
	}
	return u.revoke(ctx, manager, fp)
}

// FinishAll closes every session of the user.
func (u *UserSessions) FinishAll(ctx context.Context, manager Manager) error {
	if err := u.ready(); err != nil {
		return err
	}
	if bulk, ok := manager.(BulkRevoker); ok {
		if err := bulk.RevokeAll(ctx, u.userID); err != nil {
			return err
		}
		clear(u.sessions)
		return nil
	}
	for fp := range u.sessions {
		if err := u.revoke(ctx, manager, fp); err != nil {
			return err
		}
	}
	return nil
}

func (u *UserSessions) revoke(ctx context.Context, manager Manager, fp string) error {
	if err := manager.RevokeSession(ctx, u.userID, fp); err != nil {
		return err
	}
	delete(u.sessions, fp)
	return nil
}

func (u *UserSessions) build(ctx context.Context, tokens TokenIssuer, fingerprints Fingerprinter, subject Subject) (*Session, error) {
	if subject.UserID != u.userID {
		return nil, ErrBadBuiltSession.WithDetail("subject", "belongs to another user")
	}
	sealed, err := fingerprints.Encrypted(ctx)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	refreshToken, err := internal.NewRefreshToken(u.userID)
	if err != nil {
		return nil, err
	}
	accessToken, err := tokens.Generate(sessionID, subject, u.policy.AccessTTL)
	if err != nil {
		return nil, err
	}

	now := u.policy.Now()
	return &Session{
		Data: Data{
			SessionID:   sessionID,
			RefreshHash: internal.HashToken(refreshToken),
			Fingerprint: sealed,
			CreatedAt:   now.Unix(),
			ExpiresAt:   now.Add(u.policy.SessionTTL).Unix(),
		},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    u.policy.AccessTTL,
	}, nil
}
