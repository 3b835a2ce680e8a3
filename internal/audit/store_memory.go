package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory twin of the Postgres outbox store.
type MemoryStore struct {
	mu      sync.Mutex
	entries []memEntry
}

type memEntry struct {
	entry     OutboxEntry
	published bool
}

// NewMemoryStore creates an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, memEntry{entry: OutboxEntry{
		ID:        uuid.New(),
		Action:    event.Action,
		Payload:   payload,
		CreatedAt: event.Timestamp,
	}})
	return nil
}

func (s *MemoryStore) FetchPending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []OutboxEntry
	for _, e := range s.entries {
		if e.published {
			continue
		}
		out = append(out, e.entry)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := make(map[uuid.UUID]struct{}, len(ids))
	for _, entryID := range ids {
		marked[entryID] = struct{}{}
	}
	for i := range s.entries {
		if _, ok := marked[s.entries[i].entry.ID]; ok {
			s.entries[i].published = true
		}
	}
	return nil
}

// Events decodes every appended event, published or not, for assertions.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, 0, len(s.entries))
	for _, e := range s.entries {
		var event Event
		if err := json.Unmarshal(e.entry.Payload, &event); err == nil {
			out = append(out, event)
		}
	}
	return out
}
