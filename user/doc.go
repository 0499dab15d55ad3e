// Package user implements the account aggregate: credentials, profile,
// status lifecycle and the multifactor methods an account owns.
//
// Every operation runs synchronously against a request-scoped [Account]
// rebuilt from storage. Side effects the account cannot perform itself are
// reached through small collaborator interfaces ([LoginThrottle],
// [UserBlocker], [VerificationService], [PasswordService]) or recorded as
// domain events that the caller flushes after persisting the account.
//
// Authentication returns a tagged [AuthResult]. A multifactor challenge is
// an outcome, not an error; failures are keyed *domainerr.Error values.
package user
