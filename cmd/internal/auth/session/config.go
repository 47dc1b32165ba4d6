package session

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls access-token TTL, refresh-token TTL and entropy, clock skew
// tolerance, and the HMAC signing secret for access tokens.
type Config struct {
	// Issuer is the value set in the "iss" claim of access tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of signed access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL defines the lifetime of refresh-token records.
	RefreshTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// RefreshTokenBytes defines the number of random bytes used
	// to generate opaque refresh tokens.
	RefreshTokenBytes int

	// Secret is the symmetric HMAC key used to sign access tokens.
	// It is loaded once at process start; the process must refuse to start
	// without it.
	Secret []byte
}

// DefaultConfig returns a secure default configuration suitable for development.
//
// The signing secret has no default; LoadConfigFromEnv fails without it.
func DefaultConfig() Config {
	return Config{
		Issuer:            "spendsense",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTokenTTL:   30 * 24 * time.Hour,
		ClockSkew:         30 * time.Second,
		RefreshTokenBytes: 32,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - SPENDSENSE_JWT_SECRET (min 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - SPENDSENSE_AUTH_ISSUER
//   - SPENDSENSE_ACCESS_TTL
//   - SPENDSENSE_REFRESH_TTL
//   - SPENDSENSE_CLOCK_SKEW
//   - SPENDSENSE_REFRESH_TOKEN_BYTES
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("SPENDSENSE_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("SPENDSENSE_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("SPENDSENSE_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("SPENDSENSE_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	if v := os.Getenv("SPENDSENSE_REFRESH_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 32 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenBytes = n
	}

	secret := strings.TrimSpace(os.Getenv("SPENDSENSE_JWT_SECRET"))
	if len(secret) < 32 {
		return Config{}, ErrConfig
	}
	cfg.Secret = []byte(secret)

	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
