package conversation

import (
	"context"
	"sort"
	"sync"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// MemoryStore is the in-memory twin of the Postgres conversation store.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[id.ConversationID]*Conversation
	clientNames   map[id.ClientID][2]string
	systemEvents  map[id.ClientID][]SystemEvent
}

// NewMemoryStore creates an empty in-memory conversation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[id.ConversationID]*Conversation),
		clientNames:   make(map[id.ClientID][2]string),
		systemEvents:  make(map[id.ClientID][]SystemEvent),
	}
}

// NameClient sets the client name reported on follow-ups.
func (s *MemoryStore) NameClient(clientID id.ClientID, first, last string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientNames[clientID] = [2]string{first, last}
}

// AddSystemEvent seeds a machine-generated timeline entry.
func (s *MemoryStore) AddSystemEvent(clientID id.ClientID, event SystemEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemEvents[clientID] = append(s.systemEvents[clientID], event)
}

func (s *MemoryStore) Create(ctx context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[c.ID]; ok {
		return sentinel.ErrConflict
	}
	clone := *c
	s.conversations[c.ID] = &clone
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.conversations[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	clone := *c
	clone.ClientID = existing.ClientID
	clone.CreatedAt = existing.CreatedAt
	s.conversations[c.ID] = &clone
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, conversationID id.ConversationID) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[conversationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *MemoryStore) ListByClient(ctx context.Context, clientID id.ClientID) ([]Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Conversation
	for _, c := range s.conversations {
		if c.ClientID == clientID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) ListPendingFollowUps(ctx context.Context) ([]FollowUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []FollowUp
	for _, c := range s.conversations {
		if c.FollowUpDate == nil || c.FollowUpDone {
			continue
		}
		names := s.clientNames[c.ClientID]
		out = append(out, FollowUp{
			Conversation:    *c,
			ClientFirstName: names[0],
			ClientLastName:  names[1],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FollowUpDate.Equal(*out[j].FollowUpDate) {
			return out[i].FollowUpDate.Before(*out[j].FollowUpDate)
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

func (s *MemoryStore) ListSystemEvents(ctx context.Context, clientID id.ClientID) ([]SystemEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]SystemEvent, len(s.systemEvents[clientID]))
	copy(events, s.systemEvents[clientID])
	sort.Slice(events, func(i, j int) bool {
		return events[i].OccurredAt.After(events[j].OccurredAt)
	})
	return events, nil
}
