package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spendsense/cmd/identity"
)

// AccessClaims is the decoded, verified content of an access token.
type AccessClaims struct {
	UserID    string
	Roles     []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// Principal converts the claims into the request-scoped principal.
func (c AccessClaims) Principal() identity.Principal {
	return identity.Principal{ID: c.UserID, Roles: c.Roles}
}

// AccessTokenManager issues and verifies short-lived access tokens.
type AccessTokenManager interface {
	Issue(p identity.Principal, now time.Time) (token string, exp time.Time, err error)
	Verify(token string, now time.Time) (AccessClaims, error)
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

type hmacJWTManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	secret    []byte
}

// NewHMACManager builds an AccessTokenManager signing HS256 JWTs with the
// configured symmetric secret. Verification is stateless: signature,
// issuer, and expiry only, no store lookup.
func NewHMACManager(cfg Config) (AccessTokenManager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrConfig
	}
	return &hmacJWTManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.AccessTokenTTL,
		clockSkew: cfg.ClockSkew,
		secret:    cfg.Secret,
	}, nil
}

func (m *hmacJWTManager) Issue(p identity.Principal, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Roles: p.Roles,
	})

	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *hmacJWTManager) Verify(tokenStr string, now time.Time) (AccessClaims, error) {
	claims := &jwtClaims{}

	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		// Expiry is the one failure clients may recover from by refreshing;
		// everything else is indistinguishable invalidity.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessClaims{}, ErrTokenExpired
		}
		return AccessClaims{}, ErrInvalidToken
	}

	if claims.Subject == "" {
		return AccessClaims{}, ErrInvalidToken
	}

	out := AccessClaims{
		UserID: claims.Subject,
		Roles:  claims.Roles,
		Issuer: claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
