package clock

import (
	"context"
	"sync"
	"time"
)

// OverrideStore persists the operator-set instant. A nil instant means real
// time.
type OverrideStore interface {
	Get(ctx context.Context) (*time.Time, error)
	Set(ctx context.Context, at *time.Time) error
}

// MemoryStore keeps the override in process.
type MemoryStore struct {
	mu    sync.Mutex
	at    *time.Time
	reads int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Get(context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.at == nil {
		return nil, nil
	}
	at := *s.at
	return &at, nil
}

func (s *MemoryStore) Set(_ context.Context, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at == nil {
		s.at = nil
		return nil
	}
	v := at.UTC()
	s.at = &v
	return nil
}

// Reads reports how many times Get was called.
func (s *MemoryStore) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
