package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"spendsense/cmd/identity"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestHMACManager_IssueAndVerify(t *testing.T) {
	mgr, err := NewHMACManager(testConfig())
	if err != nil {
		t.Fatalf("NewHMACManager: %v", err)
	}

	now := time.Now().UTC()
	p := identity.Principal{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ", Roles: []string{"user", "admin"}}

	tok, exp, err := mgr.Issue(p, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected exp after now")
	}

	claims, err := mgr.Verify(tok, now.Add(time.Second))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != p.ID {
		t.Fatalf("subject = %q, want %q", claims.UserID, p.ID)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "user" || claims.Roles[1] != "admin" {
		t.Fatalf("roles = %v", claims.Roles)
	}
	if !claims.Principal().HasRole("admin") {
		t.Fatalf("expected principal to carry admin role")
	}
}

func TestHMACManager_ExpiredIsDistinctFromInvalid(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = time.Minute
	cfg.ClockSkew = 0

	mgr, err := NewHMACManager(cfg)
	if err != nil {
		t.Fatalf("NewHMACManager: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := mgr.Issue(identity.Principal{ID: "u1", Roles: []string{"user"}}, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := mgr.Verify(tok, now.Add(2*time.Minute)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token: got %v, want ErrTokenExpired", err)
	}

	// Tampered payload must read as invalid, never as expired.
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := mgr.Verify(tampered, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token: got %v, want ErrInvalidToken", err)
	}
}

func TestHMACManager_WrongKeyRejected(t *testing.T) {
	mgr, err := NewHMACManager(testConfig())
	if err != nil {
		t.Fatalf("NewHMACManager: %v", err)
	}

	otherCfg := testConfig()
	otherCfg.Secret = []byte("ffffffffffffffffffffffffffffffff")
	other, err := NewHMACManager(otherCfg)
	if err != nil {
		t.Fatalf("NewHMACManager: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := other.Issue(identity.Principal{ID: "u1"}, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := mgr.Verify(tok, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature: got %v, want ErrInvalidToken", err)
	}
}

func TestHMACManager_ClockSkewTolerated(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = time.Minute
	cfg.ClockSkew = 30 * time.Second

	mgr, err := NewHMACManager(cfg)
	if err != nil {
		t.Fatalf("NewHMACManager: %v", err)
	}

	now := time.Now().UTC()
	tok, _, err := mgr.Issue(identity.Principal{ID: "u1"}, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Just past expiry but inside the leeway window.
	if _, err := mgr.Verify(tok, now.Add(time.Minute+10*time.Second)); err != nil {
		t.Fatalf("within leeway: %v", err)
	}
}
