package carrier

import (
	"context"
	"sort"
	"sync"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// MemoryStore is the in-memory twin of the Postgres carrier store.
type MemoryStore struct {
	mu       sync.Mutex
	carriers map[id.CarrierID]*Carrier
	counts   map[id.CarrierID]int
}

// NewMemoryStore creates an empty in-memory carrier store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carriers: make(map[id.CarrierID]*Carrier),
		counts:   make(map[id.CarrierID]int),
	}
}

// SetActiveEnrollments fixes the count reported for a carrier in list views.
func (s *MemoryStore) SetActiveEnrollments(carrierID id.CarrierID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[carrierID] = n
}

func (s *MemoryStore) Create(ctx context.Context, c *Carrier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carriers[c.ID]; ok {
		return sentinel.ErrConflict
	}
	clone := *c
	s.carriers[c.ID] = &clone
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, c *Carrier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carriers[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *c
	s.carriers[c.ID] = &clone
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, carrierID id.CarrierID) (*Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carriers[carrierID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *MemoryStore) ListWithCounts(ctx context.Context) ([]WithCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WithCounts, 0, len(s.carriers))
	for _, c := range s.carriers {
		out = append(out, WithCounts{Carrier: *c, ActiveEnrollments: s.counts[c.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ListWithPortalKeys(ctx context.Context) ([]Carrier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Carrier
	for _, c := range s.carriers {
		if c.IsActive && c.PortalKey != "" {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
