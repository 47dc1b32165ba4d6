package password

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Validate checks password policy. It does not mutate input.
func (c Config) Validate(password string) error {
	// Count characters (runes), not bytes, to be user-friendly.
	n := utf8.RuneCountInString(password)

	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if n > c.Policy.MaxLength || len(password) > 72 {
		return ErrPasswordTooLong
	}

	return nil
}

// Hash hashes a password with bcrypt and returns the encoded hash string.
// The salt is generated by the primitive; two hashes of the same password
// never compare equal as strings.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), c.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for a mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	if !strings.HasPrefix(encodedHash, "$2") {
		return false, ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}
