package session

import (
	"context"
	"sync"
	"time"

	"bloodlink/internal/auth"
)

// Memory keeps sessions in a map. Used in tests and when Redis is not
// configured; expiry is enforced lazily on lookup.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session   auth.Session
	expiresAt time.Time
}

// NewMemory builds an empty store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]memoryEntry)}
}

// Save records the session.
func (s *Memory) Save(_ context.Context, session auth.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = memoryEntry{
		session:   session,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Exists reports whether the session is live and unexpired.
func (s *Memory) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Delete revokes the session.
func (s *Memory) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
