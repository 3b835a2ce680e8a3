package auth

import (
	"context"
	"sync"
	"time"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// MemoryStore is the in-memory twin of the Postgres agent store.
type MemoryStore struct {
	mu     sync.Mutex
	agents map[id.AgentID]*AgentSettings
}

// NewMemoryStore creates an empty in-memory agent store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{agents: make(map[id.AgentID]*AgentSettings)}
}

func (s *MemoryStore) Create(ctx context.Context, settings *AgentSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.Username == settings.Username {
			return sentinel.ErrConflict
		}
	}
	clone := *settings
	s.agents[settings.AgentID] = &clone
	return nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*AgentSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.Username == username {
			clone := *a
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByID(ctx context.Context, agentID id.AgentID) (*AgentSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[agentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, agentID id.AgentID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[agentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents), nil
}
