package session

import "errors"

var (
	// ErrInvalidToken is returned when an access token fails signature or
	// payload verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when an access token carries a valid
	// signature but its expiry has elapsed. It is distinct from
	// ErrInvalidToken so clients can attempt a silent refresh instead of
	// forcing a re-login.
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionNotFound is returned when a refresh token does not match any
	// live record: forged, already consumed, or expired-and-evicted.
	ErrSessionNotFound = errors.New("session not found")

	// ErrPrincipalNotFound is returned during rotation when the record's
	// owning user no longer exists.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
