package identity

import (
	"context"
	"time"
)

// User is spendsense's canonical security principal.
// PasswordHash is stored server-side only and must never be serialized.
type User struct {
	ID        string
	Name      string
	Email     string
	EmailNorm string

	PasswordHash string

	Roles []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the verified identity attached to one authenticated request.
// It is derived from an access token and never persisted.
type Principal struct {
	ID    string
	Roles []string
}

// HasRole reports whether the principal holds the given role label.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CreateUserInput describes a user registration request.
// PasswordHash must already be hashed; this boundary never sees raw passwords.
type CreateUserInput struct {
	Name         string
	Email        string
	PasswordHash string
	Roles        []string
	Now          time.Time
}

// UpdateUserInput describes a partial profile update.
// Nil fields are left unchanged. PasswordHash is set only when the caller
// re-hashed a new password ("hash-if-password-changed" is the caller's step).
type UpdateUserInput struct {
	ID           string
	Name         *string
	Email        *string
	PasswordHash *string
	Now          time.Time
}

// Store is the credential persistence boundary.
//
// Lookups by email are case-insensitive: implementations match on the
// normalized form (see NormalizeEmail).
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, in UpdateUserInput) (User, error)
	DeleteUser(ctx context.Context, id string) error
}
