package session

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is a bounded set of sessions. The least recently used session is
// evicted once the bound is reached.
type Store struct {
	cache *lru.Cache[string, *Session]
}

// NewStore creates a store holding at most size sessions.
func NewStore(size int) (*Store, error) {
	cache, err := lru.NewWithEvict(size, func(id string, _ *Session) {
		slog.Debug("Session evicted", "session_id", id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	return &Store{cache: cache}, nil
}

// Create starts a new empty session.
func (s *Store) Create() *Session {
	sess := New()
	s.cache.Add(sess.ID, sess)
	return sess
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return sess, nil
}

// GetOrCreate returns the session with the given ID, or a new one when the
// ID is unknown or expired.
func (s *Store) GetOrCreate(id string) *Session {
	if sess, err := s.Get(id); err == nil {
		return sess
	}
	return s.Create()
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}

// Len returns the number of sessions held.
func (s *Store) Len() int {
	return s.cache.Len()
}
