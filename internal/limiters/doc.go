// Package limiters holds the two login-protection stores behind an account:
// the failed-attempt throttle and the temporary blocker.
//
// # Limiters
//
//   - [AttemptThrottle] counts failed logins per user inside a fixed window
//     opened by the first failure (INCR + EXPIRE).
//   - [Blocker] keeps a self-expiring block marker per user (SET EX).
//   - [MemoryThrottle] and [MemoryBlocker] are ttlcache-backed equivalents
//     for tests and single-process deployments.
//
// All limiters are nil-safe: calling any method on a nil receiver is a no-op.
//
// # Architecture boundaries
//
// Each limiter owns its own key namespace and error type. Whether a failure
// blocks the account is decided by the account aggregate, not here.
//
// # What this package must NOT do
//
//   - Import goIdentity or any sibling internal package.
//   - Change account status; the throttle only counts and the blocker only
//     remembers.
package limiters
