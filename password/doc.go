// Package password hashes and checks account passwords with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.Check] uses the parameters embedded in the stored hash, and
// [Argon2.NeedsUpgrade] reports hashes made with weaker settings so they can
// be re-secured after the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing only. Complexity rules (length, character
// classes) belong to the account's Password value object.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other goIdentity package.
//   - Log plaintext passwords or the pepper.
package password
