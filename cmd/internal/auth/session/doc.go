// Package session implements the authentication session lifecycle.
//
// Access tokens are short-lived HS256 JWTs carrying the subject's user id
// and role set; they are stateless and verified by signature + expiry only.
// Refresh tokens are opaque random strings stored hashed server-side with a
// long expiry; they are single-use: rotation consumes the presented record
// before the replacement is issued, so a crash mid-rotation loses a session
// rather than duplicating one.
//
// A fresh login purges all prior sessions for the user. Logout deletes the
// presented record and is idempotent. Expired records are evicted by a
// periodic sweep; a not-yet-swept expired record is still rejected.
//
// Transport (cookies, HTTP) is intentionally out of scope here.
package session
