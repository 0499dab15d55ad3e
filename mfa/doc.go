// Package mfa implements the multifactor method entity owned by a user
// account.
//
// A [Method] is one registered delivery channel (SMS or email) with its own
// verification and login-challenge lifecycle:
//
//	Create -> StartVerification -> CompleteVerification -> Activate
//	Initialize -> Validate -> {Authenticated | Failed | Expired}
//
// Codes are six-digit numeric values with a TTL taken from [Policy]. Expiry
// is checked lazily on the next call that reads the code.
//
// # What this package must NOT do
//
//   - Deliver codes. Delivery belongs to whoever handles the account's events.
//   - Persist itself. [Method.Params] exposes state for repositories.
package mfa
