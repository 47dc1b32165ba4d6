package authapi

import (
	"os"
	"strconv"
	"strings"
)

// Cookie names are part of the wire contract with the front end.
const (
	RefreshCookieName = "refreshToken"
	AccessCookieName  = "accessToken"
)

// Config controls auth API behavior and cookie policy.
type Config struct {
	// Production selects the cross-site cookie policy:
	// Secure + SameSite=None in production, SameSite=Lax and non-secure in
	// local development.
	Production bool

	CookieDomain string

	MaxBodyBytes int64
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults. SPENDSENSE_ENV selects production vs. development.
func LoadConfigFromEnv() Config {
	cfg := Config{
		Production:   strings.EqualFold(strings.TrimSpace(os.Getenv("SPENDSENSE_ENV")), "production"),
		CookieDomain: strings.TrimSpace(os.Getenv("SPENDSENSE_COOKIE_DOMAIN")),
		MaxBodyBytes: 1 << 20, // 1 MiB
	}

	if v := strings.TrimSpace(os.Getenv("SPENDSENSE_MAX_BODY_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}

	return cfg
}
