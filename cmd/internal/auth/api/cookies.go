package authapi

import (
	"net/http"
	"strings"
	"time"

	"spendsense/cmd/internal/auth/session"
)

// Refresh cookie is scoped to the auth endpoints so it never rides along on
// ordinary API calls; the access cookie is sent everywhere.
const (
	refreshCookiePath = "/api/auth"
	accessCookiePath  = "/"
)

func (h *Handler) sameSite() http.SameSite {
	if h.cfg.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// setSessionCookies sets both token cookies from a freshly issued pair.
// httpOnly is always on; Secure tracks the production flag.
func (h *Handler) setSessionCookies(w http.ResponseWriter, issued session.Issued) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    issued.RefreshToken,
		Path:     refreshCookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  issued.RefreshExp,
		MaxAge:   int(time.Until(issued.RefreshExp).Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Production,
		SameSite: h.sameSite(),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    issued.AccessToken,
		Path:     accessCookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  issued.AccessExp,
		HttpOnly: true,
		Secure:   h.cfg.Production,
		SameSite: h.sameSite(),
	})
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	h.expireCookie(w, RefreshCookieName, refreshCookiePath)
	h.expireCookie(w, AccessCookieName, accessCookiePath)
}

func (h *Handler) expireCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Production,
		SameSite: h.sameSite(),
	})
}

// refreshTokenFromCookie reads the refresh token from its cookie.
// The token is never accepted from a URL or request body.
func refreshTokenFromCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

func accessTokenFromCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(AccessCookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}
