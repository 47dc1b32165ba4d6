package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (refresh_tokens).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a new refresh-token record.
func (s *PostgresStore) Create(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.UserID, rec.TokenHash, rec.CreatedAt, rec.ExpiresAt)
	return err
}

// Consume deletes the record matching tokenHash and returns it.
// DELETE ... RETURNING makes find-and-delete a single atomic statement:
// of two racing rotations, exactly one gets the row.
func (s *PostgresStore) Consume(ctx context.Context, tokenHash string) (Record, error) {
	var rec Record

	err := s.pool.QueryRow(ctx, `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1
		RETURNING id, user_id, token_hash, created_at, expires_at
	`, tokenHash).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TokenHash,
		&rec.CreatedAt,
		&rec.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Delete removes the record matching tokenHash if present (idempotent).
func (s *PostgresStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE token_hash = $1
	`, tokenHash)
	return err
}

// DeleteAllForUser removes every record owned by userID.
func (s *PostgresStore) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1
	`, userID)
	return err
}

// DeleteExpired evicts records whose expiry elapsed before now.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
