package session

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a mutex-protected Store for development and tests.
// It mirrors the Postgres store's semantics, including atomic Consume.
type InMemoryStore struct {
	mu   sync.Mutex
	byID map[string]Record
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[string]Record)}
}

// Create inserts a new record.
func (s *InMemoryStore) Create(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[rec.ID] = rec
	return nil
}

// Consume deletes and returns the record matching tokenHash.
func (s *InMemoryStore) Consume(_ context.Context, tokenHash string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.byID {
		if rec.TokenHash == tokenHash {
			delete(s.byID, id)
			return rec, nil
		}
	}
	return Record{}, ErrSessionNotFound
}

// Delete removes the record matching tokenHash if present.
func (s *InMemoryStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.byID {
		if rec.TokenHash == tokenHash {
			delete(s.byID, id)
			return nil
		}
	}
	return nil
}

// DeleteAllForUser removes every record owned by userID.
func (s *InMemoryStore) DeleteAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.byID {
		if rec.UserID == userID {
			delete(s.byID, id)
		}
	}
	return nil
}

// DeleteExpired evicts records whose expiry elapsed before now.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.byID {
		if !rec.ExpiresAt.After(now) {
			delete(s.byID, id)
			n++
		}
	}
	return n, nil
}

// Count reports the number of live records (test helper).
func (s *InMemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
