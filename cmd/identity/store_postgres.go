package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"spendsense/cmd/identity/ids"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must not close it.
// Errors are mapped to identity sentinel kinds where appropriate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const userColumns = `id, name, email, email_norm, password_hash, roles, created_at, updated_at`

// CreateUser inserts a new user row.
// A duplicate email (any casing) maps to ConflictError{Field: "email"}.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "name and email are required"}
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{RoleUser}
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:           id,
		Name:         name,
		Email:        email,
		EmailNorm:    NormalizeEmail(email),
		PasswordHash: in.PasswordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, email_norm, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, u.ID, u.Name, u.Email, u.EmailNorm, u.PasswordHash, u.Roles, now)
	if err != nil {
		if field, ok := classifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return u, nil
}

// GetUserByID loads a user row by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByEmail loads a user row by email, case-insensitively.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email_norm = $1`, NormalizeEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// ListUsers returns all user rows, newest first.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser applies a partial update and returns the stored row.
func (s *PostgresStore) UpdateUser(ctx context.Context, in UpdateUserInput) (User, error) {
	const op = "identity.UpdateUser"

	if strings.TrimSpace(in.ID) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "id is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var emailNorm *string
	if in.Email != nil {
		n := NormalizeEmail(*in.Email)
		emailNorm = &n
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET
			name          = COALESCE($2, name),
			email         = COALESCE($3, email),
			email_norm    = COALESCE($4, email_norm),
			password_hash = COALESCE($5, password_hash),
			updated_at    = $6
		WHERE id = $1
		RETURNING `+userColumns+`
	`, in.ID, in.Name, in.Email, emailNorm, in.PasswordHash, now)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		if field, ok := classifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return u, nil
}

// DeleteUser removes a user row.
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	const op = "identity.DeleteUser"

	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// PrincipalByID returns the minimal principal view used during token rotation.
func (s *PostgresStore) PrincipalByID(ctx context.Context, id string) (Principal, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	return Principal{ID: u.ID, Roles: u.Roles}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (User, error) {
	var u User
	err := r.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.EmailNorm,
		&u.PasswordHash,
		&u.Roles,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func classifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch {
	case strings.Contains(c, "email"):
		return "email", true
	default:
		return "unique", true
	}
}
