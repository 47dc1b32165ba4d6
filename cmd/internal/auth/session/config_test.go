package session

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_RequiresSecret(t *testing.T) {
	t.Setenv("SPENDSENSE_JWT_SECRET", "")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("missing secret: got %v, want ErrConfig", err)
	}

	t.Setenv("SPENDSENSE_JWT_SECRET", "too-short")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("short secret: got %v, want ErrConfig", err)
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("SPENDSENSE_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("RefreshTokenTTL = %v", cfg.RefreshTokenTTL)
	}
	if cfg.Issuer != "spendsense" {
		t.Fatalf("Issuer = %q", cfg.Issuer)
	}
	if cfg.RefreshTokenBytes != 32 {
		t.Fatalf("RefreshTokenBytes = %d", cfg.RefreshTokenBytes)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SPENDSENSE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SPENDSENSE_ACCESS_TTL", "5m")
	t.Setenv("SPENDSENSE_REFRESH_TTL", "24h")
	t.Setenv("SPENDSENSE_REFRESH_TOKEN_BYTES", "48")
	t.Setenv("SPENDSENSE_AUTH_ISSUER", "spendsense-test")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("TTLs = %v / %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.RefreshTokenBytes != 48 {
		t.Fatalf("RefreshTokenBytes = %d", cfg.RefreshTokenBytes)
	}
	if cfg.Issuer != "spendsense-test" {
		t.Fatalf("Issuer = %q", cfg.Issuer)
	}
}

func TestLoadConfigFromEnv_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"SPENDSENSE_ACCESS_TTL":          "bogus",
		"SPENDSENSE_REFRESH_TTL":         "-1h",
		"SPENDSENSE_REFRESH_TOKEN_BYTES": "8",
	}

	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("SPENDSENSE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
			t.Setenv(key, val)
			if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
				t.Fatalf("got %v, want ErrConfig", err)
			}
		})
	}
}

func TestLoadConfigFromEnv_AccessMustBeShorterThanRefresh(t *testing.T) {
	t.Setenv("SPENDSENSE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SPENDSENSE_ACCESS_TTL", "48h")
	t.Setenv("SPENDSENSE_REFRESH_TTL", "24h")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("got %v, want ErrConfig", err)
	}
}
