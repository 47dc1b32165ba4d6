package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spendsense/cmd/identity"
	"spendsense/cmd/internal/auth/session"
	"spendsense/cmd/security/password"
)

// Handler wires the HTTP auth endpoints to the credential store and the
// session service. It also serves the /api/users resource.
type Handler struct {
	log *slog.Logger
	cfg Config

	users    identity.Store
	sessions *session.Service
	pw       password.Config

	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, pw password.Config, users identity.Store, sessions *session.Service) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil || sessions == nil {
		return nil, errors.New("authapi: nil store or session service")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		pw:       pw,
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := pw.Hash("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth and user routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("DELETE /api/auth/refresh", h.handleRefresh)
	mux.HandleFunc("DELETE /api/auth/logout", h.handleLogout)
	mux.Handle("GET /api/auth/me", h.RequireAuth(http.HandlerFunc(h.handleMe)))

	adminOnly := h.Guard(identity.AnyOf(identity.RoleAdmin), nil)
	selfOnly := h.Guard(identity.OwnerOnly(), h.userLoader())

	mux.Handle("GET /api/users", adminOnly(http.HandlerFunc(h.handleListUsers)))
	mux.Handle("GET /api/users/{id}", selfOnly(http.HandlerFunc(h.handleGetUser)))
	mux.Handle("PUT /api/users/{id}", selfOnly(http.HandlerFunc(h.handleUpdateUser)))
	mux.Handle("DELETE /api/users/{id}", adminOnly(http.HandlerFunc(h.handleDeleteUser)))
}

// ---- auth handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name, email and password are required")
		return
	}

	hash, err := h.pw.Hash(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort), errors.Is(err, password.ErrPasswordTooLong):
			WriteError(w, http.StatusBadRequest, "invalid_password", "password does not meet the policy")
		default:
			h.log.Error("auth.register.hash.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	u, err := h.users.CreateUser(ctx, identity.CreateUserInput{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{identity.RoleUser},
		Now:          now,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			// Uniqueness is case-insensitive; the store matched on the
			// normalized email.
			WriteError(w, http.StatusConflict, "email_in_use", "email already in use")
		case identity.IsInvalidInput(err):
			WriteError(w, http.StatusBadRequest, "invalid_request", "invalid input")
		default:
			h.log.Error("auth.register.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	u, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			// Timing resistance: perform a dummy verify when the user is
			// missing, and never reveal which part was wrong.
			if h.dummyHash != "" {
				_, _ = h.pw.Verify(h.dummyHash, req.Password)
			}
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("auth.login.lookup.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	ok, err := h.pw.Verify(u.PasswordHash, req.Password)
	if err != nil || !ok {
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	// Fresh login purges all prior sessions for this user.
	issued, err := h.sessions.Login(ctx, now, identity.Principal{ID: u.ID, Roles: u.Roles})
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.setSessionCookies(w, issued)
	WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: issued.AccessToken,
		User:        toUserResponse(u),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := refreshTokenFromCookie(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing_token", "refresh token cookie is required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	issued, err := h.sessions.Rotate(ctx, now, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrPrincipalNotFound):
			// Forged, already consumed, or expired-and-evicted; also covers
			// a deleted owning user. The client must re-login.
			h.clearSessionCookies(w)
			WriteError(w, http.StatusForbidden, "session_not_found", "session not found")
		default:
			// Store fault after the consume is an infrastructure failure,
			// not a client error: the session is lost, never duplicated.
			h.log.Error("auth.refresh.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.setSessionCookies(w, issued)
	WriteJSON(w, http.StatusOK, messageResponse{Message: "Refreshed"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if refreshToken, ok := refreshTokenFromCookie(r); ok {
		if err := h.sessions.Invalidate(ctx, refreshToken); err != nil {
			h.log.Error("auth.logout.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
	}

	// 200 whether or not a record existed: logout is idempotent.
	h.clearSessionCookies(w)
	WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	u, err := h.users.GetUserByID(r.Context(), p.ID)
	if err != nil {
		if identity.IsNotFound(err) {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "user not found")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	WriteJSON(w, http.StatusOK, toUserResponse(u))
}

// ---- users resource ----

func (h *Handler) userLoader() ResourceLoader {
	return func(r *http.Request, id string) (string, any, error) {
		u, err := h.users.GetUserByID(r.Context(), id)
		if err != nil {
			return "", nil, err
		}
		// A user record is owned by itself.
		return u.ID, u, nil
	}
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.log.Error("users.list.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := ResourceFrom(r.Context()).(identity.User)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	u, ok := ResourceFrom(r.Context()).(identity.User)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	var req updateUserRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	in := identity.UpdateUserInput{
		ID:    u.ID,
		Name:  trimPtr(req.Name),
		Email: trimPtr(req.Email),
		Now:   time.Now().UTC(),
	}

	// Hash-if-password-changed: the hash is recomputed only when a new raw
	// password is supplied.
	if req.Password != nil && *req.Password != "" {
		hash, err := h.pw.Hash(*req.Password)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_password", "password does not meet the policy")
			return
		}
		in.PasswordHash = &hash
	}

	updated, err := h.users.UpdateUser(r.Context(), in)
	if err != nil {
		switch {
		case identity.IsConflict(err):
			WriteError(w, http.StatusConflict, "email_in_use", "email already in use")
		case identity.IsNotFound(err):
			WriteError(w, http.StatusNotFound, "not_found", "user not found")
		default:
			h.log.Error("users.update.fail", "err", err)
			WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	WriteJSON(w, http.StatusOK, toUserResponse(updated))
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		if identity.IsNotFound(err) {
			WriteError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		h.log.Error("users.delete.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	WriteJSON(w, http.StatusOK, messageResponse{Message: "User deleted"})
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
