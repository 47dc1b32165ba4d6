// Package password provides password hashing and verification for spendsense.
//
// It implements bcrypt hashing and includes:
// - Configurable cost factor (via environment variables)
// - Password policy validation
// - Strict handling of stored hashes during Verify
//
// Security notes:
// - A mismatch is a normal outcome, reported as (false, nil), never as an error.
// - Stored hashes are treated as untrusted input during Verify; malformed
//   hashes are rejected with ErrInvalidHash.
package password
