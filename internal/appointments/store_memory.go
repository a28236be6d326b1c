package appointments

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local runs without Postgres.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Appointment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Appointment)}
}

func (s *MemoryStore) Put(a Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[a.ID] = a
}

func (s *MemoryStore) Get(_ context.Context, id string) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) MarkAttended(_ context.Context, id string, at time.Time) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.Status == StatusCompleted {
		return a, nil
	}
	at = at.UTC()
	a.Status = StatusCompleted
	a.AttendedAt = &at
	s.items[id] = a
	return a, nil
}
