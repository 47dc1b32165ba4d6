package authapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"spendsense/cmd/identity"
	"spendsense/cmd/internal/auth/session"
)

type contextKey int

const (
	principalKey contextKey = iota
	resourceKey
)

// PrincipalFrom returns the authenticated principal attached by RequireAuth.
func PrincipalFrom(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok
}

// ResourceFrom returns the resource loaded by a Guard's ResourceLoader, or
// nil when no loader ran.
func ResourceFrom(ctx context.Context) any {
	return ctx.Value(resourceKey)
}

// ResourceLoader resolves the resource addressed by the request's {id} path
// segment and reports who owns it. Returning an error satisfying
// identity.IsNotFound yields a 404 before any authorization decision.
type ResourceLoader func(r *http.Request, id string) (ownerID string, resource any, err error)

// RequireAuth verifies the access token cookie and attaches the principal to
// the request context. Verification is stateless: no store lookup happens on
// this path.
//
// An expired token fails with the machine-readable code "access_token_expired"
// so clients can rotate and retry; every other failure is reported as an
// invalid token without detail.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := accessTokenFromCookie(r)
		if !ok {
			WriteError(w, http.StatusUnauthorized, "missing_token", "access token cookie is required")
			return
		}

		claims, err := h.sessions.VerifyAccessToken(raw, time.Now().UTC())
		if err != nil {
			if errors.Is(err, session.ErrTokenExpired) {
				WriteError(w, http.StatusUnauthorized, "access_token_expired", "access token expired")
				return
			}
			WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard builds a middleware that authenticates the request and then applies
// pol. When loader is non-nil the {id} path segment is resolved first, so a
// missing resource reads as 404 rather than leaking through a 403, and the
// loaded resource is attached to the context for the handler.
func (h *Handler) Guard(pol identity.Policy, loader ResourceLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFrom(r.Context())

			var ownerID string
			if loader != nil {
				id := r.PathValue("id")
				if id == "" {
					WriteError(w, http.StatusBadRequest, "invalid_request", "resource id is required")
					return
				}

				owner, resource, err := loader(r, id)
				if err != nil {
					if identity.IsNotFound(err) {
						WriteError(w, http.StatusNotFound, "not_found", "resource not found")
						return
					}
					h.log.Error("authz.load.fail", "err", err)
					WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
					return
				}

				ownerID = owner
				r = r.WithContext(context.WithValue(r.Context(), resourceKey, resource))
			}

			if !identity.Allowed(p, pol, ownerID) {
				WriteError(w, http.StatusForbidden, "forbidden", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}
