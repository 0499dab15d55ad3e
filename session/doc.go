// Package session implements per-device sessions for a user and their
// persistence.
//
// A user holds at most one session per device. Devices are told apart by a
// fingerprint hash derived from the request context, and [UserSessions]
// keys its sessions by that hash: logging in again from the same device
// revokes the old session before the new one is registered, and a refresh
// is a revoke-then-recreate rotation, never an in-place update.
//
// # Binary encoding
//
// [Data] is stored as a compact versioned binary record. The Redis
// [RedisManager] keeps all sessions of a user in one hash
// (field = fingerprint hash) and rotates them with a Lua compare-and-swap.
//
// # Architecture boundaries
//
// This package owns the [Session] model, the [UserSessions] aggregate and
// the [Manager] implementations. Token signing and fingerprinting are
// reached through [TokenIssuer] and [Fingerprinter].
//
// # What this package must NOT do
//
//   - Import goIdentity, user, or jwt (no upward imports).
//   - Store plaintext refresh tokens. Only their SHA-256 is persisted.
package session
