package dashboard

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-memory twin of the Postgres dashboard store. It
// serves seeded stats and counts computations so cache behavior is
// observable.
type MemoryStore struct {
	mu       sync.Mutex
	stats    Stats
	computes int
}

// NewMemoryStore creates a store serving zeroed stats.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed replaces the stats served on the next computation.
func (s *MemoryStore) Seed(stats Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// Computes reports how many times Stats ran.
func (s *MemoryStore) Computes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computes
}

func (s *MemoryStore) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.computes++
	clone := s.stats
	return &clone, nil
}
