package client

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// MemoryStore is the in-memory twin of the Postgres client store.
type MemoryStore struct {
	mu      sync.Mutex
	clients map[id.ClientID]*Client
	// carriers records which carriers a client has an active enrollment with,
	// mirroring the enrollment subquery the Postgres store filters on.
	carriers map[id.ClientID]map[id.CarrierID]bool
}

// NewMemoryStore creates an empty in-memory client store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:  make(map[id.ClientID]*Client),
		carriers: make(map[id.ClientID]map[id.CarrierID]bool),
	}
}

// LinkCarrier marks a client as actively enrolled with a carrier for list
// filtering.
func (s *MemoryStore) LinkCarrier(clientID id.ClientID, carrierID id.CarrierID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carriers[clientID] == nil {
		s.carriers[clientID] = make(map[id.CarrierID]bool)
	}
	s.carriers[clientID][carrierID] = true
}

func (s *MemoryStore) Create(ctx context.Context, c *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; ok {
		return sentinel.ErrConflict
	}
	clone := *c
	s.clients[c.ID] = &clone
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, c *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.clients[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	clone := *c
	clone.IsActive = existing.IsActive
	clone.CreatedAt = existing.CreatedAt
	s.clients[c.ID] = &clone
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, clientID id.ClientID) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]Client, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Client
	for _, c := range s.clients {
		if s.matches(c, filter) {
			matched = append(matched, *c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].LastName != matched[j].LastName {
			return matched[i].LastName < matched[j].LastName
		}
		if matched[i].FirstName != matched[j].FirstName {
			return matched[i].FirstName < matched[j].FirstName
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *MemoryStore) matches(c *Client, filter Filter) bool {
	if !filter.IncludeInactive && !c.IsActive {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		mbi := ""
		if c.MBI != nil {
			mbi = strings.ToLower(*c.MBI)
		}
		if !strings.Contains(strings.ToLower(c.FirstName), needle) &&
			!strings.Contains(strings.ToLower(c.LastName), needle) &&
			!strings.Contains(mbi, needle) {
			return false
		}
	}
	if filter.State != "" && !strings.EqualFold(c.State, filter.State) {
		return false
	}
	if filter.Zip != "" && c.Zip != filter.Zip {
		return false
	}
	if filter.DualEligible != nil && c.DualEligible != *filter.DualEligible {
		return false
	}
	if filter.CarrierID != nil && !s.carriers[c.ID][*filter.CarrierID] {
		return false
	}
	return true
}

func (s *MemoryStore) Deactivate(ctx context.Context, clientID id.ClientID, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.IsActive = false
	c.UpdatedAt = updatedAt
	return nil
}
