// Package flows runs the request-level lifecycle of the user aggregate:
// load, operate, persist, publish.
//
// The root Engine builds one [Service] from a [Deps] value and routes every
// account operation through it, so the persist-then-publish ordering lives
// in one place.
//
// # Architecture boundaries
//
// Flows coordinate the repository and the event bus. They do NOT own either
// resource; ownership stays with the Engine. Session issuance, token
// handling and metrics remain in the root package.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goIdentity (to avoid import cycles).
//   - Publish events of an account that failed to persist.
package flows
