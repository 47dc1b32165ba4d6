package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// HMACEnvKey is the env var name for the refresh-token HMAC secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	HMACEnvKey = "SPENDSENSE_TOKEN_HMAC_KEY"
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HMACKeyFromEnv returns the configured HMAC key bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrHMACKeyMissing.
// If too short -> ErrHMACKeyTooShort.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// HashRefreshTokenHex hashes refresh tokens for server-side storage.
// Behavior:
// - If SPENDSENSE_TOKEN_HMAC_KEY is set (non-empty), uses HMAC-SHA256(token, key).
// - Otherwise falls back to SHA-256(token) for dev setups.
func HashRefreshTokenHex(token string) string {
	key := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if key == "" {
		return HashSHA256Hex(token)
	}
	return HashHMACSHA256Hex(token, []byte(key))
}
