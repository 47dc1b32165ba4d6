package session

import (
	"context"
	"strings"
	"time"

	"spendsense/cmd/identity"
	"spendsense/cmd/identity/ids"
	"spendsense/cmd/security/token"
)

// PrincipalSource resolves the owning user of a refresh-token record during
// rotation. It is satisfied by the identity store.
type PrincipalSource interface {
	PrincipalByID(ctx context.Context, id string) (identity.Principal, error)
}

// Service implements the high-level session operations.
//
// It issues access/refresh pairs, rotates refresh tokens with single-use
// enforcement, and invalidates sessions on logout.
type Service struct {
	cfg        Config
	tokens     AccessTokenManager
	store      Store
	principals PrincipalSource
}

// Issued is the result of issuing or rotating a session.
// It includes a short-lived access token and an opaque refresh token.
type Issued struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewService constructs a Service with the provided configuration, store,
// token manager, and principal source.
func NewService(cfg Config, store Store, tokens AccessTokenManager, principals PrincipalSource) *Service {
	return &Service{cfg: cfg, store: store, tokens: tokens, principals: principals}
}

// Login purges every prior session for the user, then issues a fresh pair.
// The purge happens only here: rotation keeps other concurrent sessions
// alive (single-active-login policy applies at sign-in time only).
func (s *Service) Login(ctx context.Context, now time.Time, p identity.Principal) (Issued, error) {
	if err := s.store.DeleteAllForUser(ctx, p.ID); err != nil {
		return Issued{}, err
	}
	return s.Issue(ctx, now, p)
}

// Issue creates a new refresh-token record and signs a new access token.
// The caller must have authenticated the principal (password verified, or a
// just-consumed refresh record).
func (s *Service) Issue(ctx context.Context, now time.Time, p identity.Principal) (Issued, error) {
	refreshPlain, refreshHash, err := newOpaqueRefreshToken(s.cfg.RefreshTokenBytes)
	if err != nil {
		return Issued{}, err
	}

	refreshExp := now.Add(s.cfg.RefreshTokenTTL)

	id, err := ids.NewULID(now)
	if err != nil {
		return Issued{}, err
	}

	if err := s.store.Create(ctx, Record{
		ID:        id,
		UserID:    p.ID,
		TokenHash: refreshHash,
		CreatedAt: now,
		ExpiresAt: refreshExp,
	}); err != nil {
		return Issued{}, err
	}

	accessToken, accessExp, err := s.tokens.Issue(p, now)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshPlain,
		RefreshExp:   refreshExp,
	}, nil
}

// Rotate consumes the presented refresh token and issues a replacement pair.
//
// Single-use enforcement: the record is deleted before the replacement is
// issued, so a crash mid-rotation fails safe (session lost, not duplicated),
// and a racing duplicate request observes ErrSessionNotFound.
func (s *Service) Rotate(ctx context.Context, now time.Time, refreshPlain string) (Issued, error) {
	refreshPlain = strings.TrimSpace(refreshPlain)
	// Basic sanity bounds to avoid pathological inputs.
	if refreshPlain == "" || len(refreshPlain) > 4096 {
		return Issued{}, ErrSessionNotFound
	}

	// Hash in-memory; the plain token never reaches the store.
	refreshHash := token.HashRefreshTokenHex(refreshPlain)

	rec, err := s.store.Consume(ctx, refreshHash)
	if err != nil {
		return Issued{}, err
	}

	// An expired record the sweeper has not evicted yet is still dead.
	// It has already been consumed above, which is the fail-safe outcome.
	if !rec.ExpiresAt.After(now) {
		return Issued{}, ErrSessionNotFound
	}

	p, err := s.principals.PrincipalByID(ctx, rec.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return Issued{}, ErrPrincipalNotFound
		}
		return Issued{}, err
	}

	return s.Issue(ctx, now, p)
}

// Invalidate deletes the record matching the presented refresh token.
// Absence is not an error: logout is idempotent.
func (s *Service) Invalidate(ctx context.Context, refreshPlain string) error {
	refreshPlain = strings.TrimSpace(refreshPlain)
	if refreshPlain == "" {
		return nil
	}
	return s.store.Delete(ctx, token.HashRefreshTokenHex(refreshPlain))
}

// VerifyAccessToken verifies an access token statelessly.
// No store lookup happens here: revocation before natural expiry is
// impossible, bounded by the short access-token lifetime.
func (s *Service) VerifyAccessToken(tokenStr string, now time.Time) (AccessClaims, error) {
	return s.tokens.Verify(tokenStr, now)
}

// EvictExpired removes refresh-token records whose expiry has elapsed.
// Called periodically by the app-level janitor.
func (s *Service) EvictExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.store.DeleteExpired(ctx, now)
}
