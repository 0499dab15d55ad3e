// Package jwt issues and verifies the access tokens handed out with every
// session.
//
// Tokens carry the session subject (user ID, email, full name, status) and
// use the session ID as JWT ID, so a strict validator can check that the
// session still exists. Ed25519 and HS256 are supported; verification pins
// the algorithm, issuer, audience and optional key ID.
package jwt
