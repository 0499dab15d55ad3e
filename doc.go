// Package goIdentity is an identity core: account registration and email
// verification, password login with failed-attempt throttling and
// temporary blocking, SMS/EMAIL multifactor challenges, and device-bound
// sessions carrying short-lived JWT access tokens and rotating opaque
// refresh tokens.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder],
// [Config] and value types ([LoginResult], [Identity], [SessionInfo]).
// Business rules live in the user, mfa and session aggregates; request
// orchestration (load, operate, persist, publish) lives in internal/flows.
// Reactions to account events, such as blocking a user in Redis or sending
// a verification code, are handlers wired on the event bus by Build and run
// only after the account that recorded the events was saved.
//
// # Device context
//
// Sessions are keyed by a fingerprint of the calling device. Attach it to
// the request context with [WithDevice] or [WithClient] before calling
// Login, ConfirmMultifactor, Refresh or Logout.
//
// # Validation modes
//
// [Engine.ValidateAccess] in [ModeJWTOnly] checks the token alone and
// performs no I/O. [ModeStrict] also requires the session the token was
// issued for to still exist, at the cost of one backend read.
package goIdentity
