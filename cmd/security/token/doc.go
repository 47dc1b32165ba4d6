// Package token provides hashing helpers for opaque refresh tokens.
//
// Refresh tokens are never stored in plaintext. The digest used for storage
// is HMAC-SHA256 when SPENDSENSE_TOKEN_HMAC_KEY is set, and plain SHA-256
// otherwise (development fallback).
package token
