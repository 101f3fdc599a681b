package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bloodlink/internal/auth"
	"bloodlink/pkg/platform/sentinel"
)

// Memory is an in-memory user store for tests and local development.
type Memory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*auth.User
	byEmail map[string]*auth.User
}

// NewMemory builds an empty store.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[uuid.UUID]*auth.User),
		byEmail: make(map[string]*auth.User),
	}
}

// CreateUser stores a new account, enforcing email uniqueness.
func (s *Memory) CreateUser(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return sentinel.ErrConflict
	}
	clone := *user
	s.byID[user.ID] = &clone
	s.byEmail[user.Email] = &clone
	return nil
}

// GetUserByEmail returns a copy of the account with the given email.
func (s *Memory) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// GetUserByID returns a copy of the account with the given id.
func (s *Memory) GetUserByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *user
	return &clone, nil
}
