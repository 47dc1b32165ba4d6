package authapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spendsense/cmd/identity"
	"spendsense/cmd/internal/auth/session"
)

func issueAccessCookie(t *testing.T, env *testEnv, p identity.Principal, now time.Time) *http.Cookie {
	t.Helper()
	issued, err := env.handler.sessions.Issue(t.Context(), now, p)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return &http.Cookie{Name: AccessCookieName, Value: issued.AccessToken}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	env := newTestEnv(t, false)

	handler := env.handler.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "missing_token" {
		t.Fatalf("code = %q", code)
	}
}

func TestRequireAuth_ExpiredVersusInvalid(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "Alice", "alice@example.com", "s3cret-pass")
	resp, _ := env.login(t, "alice@example.com", "s3cret-pass")

	handler := env.handler.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// An expired token carries its own machine-readable code so clients know
	// to rotate instead of re-authenticating.
	exp := session.DefaultConfig().AccessTokenTTL + time.Minute

	expiredMgr, err := session.NewHMACManager(func() session.Config {
		cfg := session.DefaultConfig()
		cfg.Secret = []byte("0123456789abcdef0123456789abcdef")
		cfg.ClockSkew = 0
		return cfg
	}())
	if err != nil {
		t.Fatalf("NewHMACManager: %v", err)
	}
	oldToken, _, err := expiredMgr.Issue(identity.Principal{ID: "u1", Roles: []string{"user"}}, time.Now().Add(-exp))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: oldToken})
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expired status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "access_token_expired" {
		t.Fatalf("expired code = %q", code)
	}

	// Garbage is plain invalid.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "not.a.jwt"})
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("invalid status = %d", w.Code)
	}
	if code := errorCode(t, w); code != "invalid_token" {
		t.Fatalf("invalid code = %q", code)
	}

	// A live token passes and exposes the principal.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: resp.AccessToken})
	env.handler.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok || p.ID == "" {
			t.Fatalf("principal missing from context")
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("live token status = %d", w.Code)
	}
}

func TestGuard_LoadsBeforeAuthorizing(t *testing.T) {
	env := newTestEnv(t, false)
	now := time.Now().UTC()

	owner := identity.Principal{ID: "owner-1", Roles: []string{identity.RoleUser}}
	stranger := identity.Principal{ID: "stranger-1", Roles: []string{identity.RoleUser}}
	admin := identity.Principal{ID: "admin-1", Roles: []string{identity.RoleAdmin}}

	type doc struct{ Owner string }
	loader := func(_ *http.Request, id string) (string, any, error) {
		if id != "doc-1" {
			return "", nil, identity.NotFoundError{Op: "test.load", Resource: "doc"}
		}
		return "owner-1", doc{Owner: "owner-1"}, nil
	}

	mux := http.NewServeMux()
	guard := env.handler.Guard(identity.OwnerOnly(), loader)
	mux.Handle("GET /docs/{id}", guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ResourceFrom(r.Context()).(doc); !ok {
			t.Fatalf("resource missing from context")
		}
		w.WriteHeader(http.StatusOK)
	})))

	get := func(p identity.Principal, id string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/docs/"+id, nil)
		r.AddCookie(issueAccessCookie(t, env, p, now))
		mux.ServeHTTP(w, r)
		return w
	}

	// Missing resources 404 for everyone: existence is decided before
	// ownership, so a 403 never leaks that an id is real.
	if w := get(stranger, "no-such-doc"); w.Code != http.StatusNotFound {
		t.Fatalf("stranger misses: status = %d", w.Code)
	}
	if w := get(owner, "no-such-doc"); w.Code != http.StatusNotFound {
		t.Fatalf("owner misses: status = %d", w.Code)
	}

	if w := get(owner, "doc-1"); w.Code != http.StatusOK {
		t.Fatalf("owner: status = %d", w.Code)
	}
	if w := get(admin, "doc-1"); w.Code != http.StatusOK {
		t.Fatalf("admin: status = %d", w.Code)
	}
	if w := get(stranger, "doc-1"); w.Code != http.StatusForbidden {
		t.Fatalf("stranger: status = %d", w.Code)
	}
}
