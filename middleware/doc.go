// Package middleware adapts Engine.ValidateAccess to net/http.
//
// # Guards
//
//   - [Guard] validates with an explicit mode, or the Engine default for ModeInherit.
//   - [RequireJWTOnly] checks the token signature and claims only.
//   - [RequireStrict] also requires the session to still be open.
//
// Each guard reads the bearer token from the Authorization header and
// stores the validated [goIdentity.Identity] in the request context.
// [ClientDevice] attaches the caller's device so handlers can call Login,
// Refresh or Logout with the request context.
//
// The package makes no decision of its own beyond pass or reject and never
// touches Redis directly.
package middleware
