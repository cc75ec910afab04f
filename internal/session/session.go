// Package session stores opaque session tokens bound to account handles.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown, revoked or expired tokens.
var ErrNotFound = errors.New("session not found")

// Store maps session tokens to handles. A zero ttl means no expiry.
type Store interface {
	Put(ctx context.Context, token, handle string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// Close releases s when it holds a connection. In-memory stores have nothing
// to release.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type entry struct {
	handle  string
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// MemoryStore keeps sessions in process memory. Expired sessions are dropped
// when looked up and swept on every Put.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]entry), now: time.Now}
}

func (s *MemoryStore) Put(ctx context.Context, token, handle string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for tok, old := range s.sessions {
		if old.expired(now) {
			delete(s.sessions, tok)
		}
	}

	e := entry{handle: handle}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	s.sessions[token] = e
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return "", ErrNotFound
	}
	if e.expired(s.now()) {
		delete(s.sessions, token)
		return "", ErrNotFound
	}
	return e.handle, nil
}

// Len returns the number of sessions held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
