package session

import (
	"context"
	"time"
)

// Record is one live refresh-token session.
// TokenHash is the stored digest of the opaque token; the plain token is
// handed to the client exactly once and never persisted.
type Record struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store abstracts persistence for refresh-token records.
//
// Implementations must make Consume an atomic find-and-delete: when two
// requests race to rotate the same token, exactly one sees the record and
// the other gets ErrSessionNotFound.
type Store interface {
	// Create persists a new record. The record's token hash is unique.
	Create(ctx context.Context, rec Record) error

	// Consume deletes the record matching tokenHash and returns it.
	// Missing record -> ErrSessionNotFound.
	Consume(ctx context.Context, tokenHash string) (Record, error)

	// Delete removes the record matching tokenHash if present.
	// Absence is not an error (idempotent logout).
	Delete(ctx context.Context, tokenHash string) error

	// DeleteAllForUser removes every record owned by userID.
	DeleteAllForUser(ctx context.Context, userID string) error

	// DeleteExpired evicts records whose expiry elapsed before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
