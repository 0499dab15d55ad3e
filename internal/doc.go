// Package internal contains helper utilities that are intentionally private to goIdentity,
// including secure random code generation and refresh token packing.
//
// # Sub-packages
//
//   - flows: request-level orchestration (load the aggregate, operate, persist, flush events)
//   - limiters: login attempt throttle and temporary user blocker (Redis, memory)
//   - stores: email verification challenge store (Redis, memory)
//
// # What this package must NOT do
//
//   - Export types that appear in the public goIdentity API.
//   - Be imported by any package outside the goIdentity module.
package internal
