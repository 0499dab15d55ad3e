package session

import "time"

// TokenType is the scheme of every issued access token.
const TokenType = "Bearer"

// Subject is the access-token payload.
type Subject struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	FullName string `json:"name,omitempty"`
	Status   string `json:"status"`
}

// Data is the persisted part of a session.
type Data struct {
	SessionID   string
	RefreshHash [32]byte
	// Fingerprint is the encrypted device context the session was issued to.
	Fingerprint string
	CreatedAt   int64
	ExpiresAt   int64
}

// Expired reports whether the session lapsed at now.
func (d Data) Expired(now time.Time) bool {
	return now.Unix() >= d.ExpiresAt
}

// Session is one issued token pair bound to a device.
type Session struct {
	Data
	AccessToken  string
	RefreshToken string
	// AccessTTL is the access token lifetime.
	AccessTTL time.Duration
}

// Token returns the client-facing view of s.
func (s *Session) Token() AccessToken {
	return AccessToken{
		SessionID:        s.SessionID,
		AccessToken:      s.AccessToken,
		RefreshToken:     s.RefreshToken,
		TokenType:        TokenType,
		ExpiresIn:        int64(s.AccessTTL / time.Second),
		RefreshExpiresAt: time.Unix(s.ExpiresAt, 0).UTC(),
	}
}

// AccessToken is returned to clients after login or refresh.
type AccessToken struct {
	SessionID        string    `json:"session_id"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Entry is one listed session.
type Entry struct {
	FingerprintHash string
	Data
}

// Policy holds session lifetimes.
type Policy struct {
	AccessTTL  time.Duration
	SessionTTL time.Duration
	Now        func() time.Time
}

// DefaultPolicy returns 15 minute access tokens and 7 day sessions.
func DefaultPolicy() Policy {
	return Policy{AccessTTL: 15 * time.Minute, SessionTTL: 7 * 24 * time.Hour, Now: time.Now}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.AccessTTL <= 0 {
		p.AccessTTL = d.AccessTTL
	}
	if p.SessionTTL <= 0 {
		p.SessionTTL = d.SessionTTL
	}
	if p.Now == nil {
		p.Now = d.Now
	}
	return p
}
