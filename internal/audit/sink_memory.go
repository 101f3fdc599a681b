package audit

import (
	"context"
	"sync"
)

// MemorySink keeps events in memory. Used in tests and when no brokers are
// configured.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink builds an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish appends the event.
func (s *MemorySink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event{}, s.events...)
}

// Close is a no-op.
func (s *MemorySink) Close() error { return nil }
