package password

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Policy controls password validation boundaries.
//
// MaxLength also guards bcrypt's hard 72-byte input limit: anything longer
// would be silently truncated by the primitive, so it is rejected up front.
type Policy struct {
	MinLength int
	MaxLength int
}

// Config is the single configuration surface for this package.
type Config struct {
	// Cost is the bcrypt cost factor. It is tuned so that one hash takes
	// tens of milliseconds on current server hardware.
	Cost int

	Policy Policy
}

// DefaultConfig returns a baseline suitable for interactive logins.
func DefaultConfig() Config {
	return Config{
		Cost: 12,
		Policy: Policy{
			MinLength: 6,
			MaxLength: 72,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - SPENDSENSE_BCRYPT_COST
// - SPENDSENSE_PASSWORD_MIN_LENGTH
// - SPENDSENSE_PASSWORD_MAX_LENGTH
//
// Returns ErrConfig for values outside sane bounds.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("SPENDSENSE_BCRYPT_COST")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, ErrConfig
		}
		cfg.Cost = n
	}

	if v := strings.TrimSpace(os.Getenv("SPENDSENSE_PASSWORD_MIN_LENGTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, ErrConfig
		}
		cfg.Policy.MinLength = n
	}

	if v := strings.TrimSpace(os.Getenv("SPENDSENSE_PASSWORD_MAX_LENGTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 72 {
			return Config{}, ErrConfig
		}
		cfg.Policy.MaxLength = n
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
