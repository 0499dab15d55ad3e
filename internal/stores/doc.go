// Package stores keeps the short-lived email verification challenge of each
// account.
//
// # Design
//
// [VerificationStore] persists one versioned binary record per user in Redis
// with a TTL. A challenge is created with SET NX so a concurrent second
// request cannot overwrite a live one, and consumed by a Lua GET+DEL so each
// code is tried exactly once. Only the SHA-256 of the code is stored and
// comparisons are constant-time. [MemoryVerificationStore] is the ttlcache
// counterpart.
//
// ValidateVerificationCode folds missing, expired and wrong codes into one
// false result, which is all the account aggregate needs. Consume keeps the
// three apart for callers that want to tell the user which one happened.
//
// # What this package must NOT do
//
//   - Import goIdentity or any sibling internal package.
//   - Log or expose plaintext codes.
//   - Use non-constant-time comparisons for secret matching.
package stores
