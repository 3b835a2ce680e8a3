package enrollment

import (
	"context"
	"sort"
	"sync"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// MemoryStore is the in-memory twin of the Postgres enrollment store.
type MemoryStore struct {
	mu          sync.Mutex
	enrollments map[id.EnrollmentID]*Enrollment
	// names mirror the join columns the Postgres list query pulls in.
	clientNames  map[id.ClientID][2]string
	carrierNames map[id.CarrierID]string
}

// NewMemoryStore creates an empty in-memory enrollment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enrollments:  make(map[id.EnrollmentID]*Enrollment),
		clientNames:  make(map[id.ClientID][2]string),
		carrierNames: make(map[id.CarrierID]string),
	}
}

// NameClient sets the client name the list view reports.
func (s *MemoryStore) NameClient(clientID id.ClientID, first, last string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientNames[clientID] = [2]string{first, last}
}

// NameCarrier sets the carrier name the list view reports.
func (s *MemoryStore) NameCarrier(carrierID id.CarrierID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carrierNames[carrierID] = name
}

func (s *MemoryStore) Create(ctx context.Context, e *Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enrollments[e.ID]; ok {
		return sentinel.ErrConflict
	}
	clone := *e
	s.enrollments[e.ID] = &clone
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, e *Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.enrollments[e.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	clone := *e
	clone.ClientID = existing.ClientID
	clone.CarrierID = existing.CarrierID
	clone.CreatedAt = existing.CreatedAt
	s.enrollments[e.ID] = &clone
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[enrollmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *MemoryStore) List(ctx context.Context, clientID *id.ClientID) ([]WithNames, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []WithNames
	for _, e := range s.enrollments {
		if clientID != nil && e.ClientID != *clientID {
			continue
		}
		names := s.clientNames[e.ClientID]
		out = append(out, WithNames{
			Enrollment:      *e,
			ClientFirstName: names[0],
			ClientLastName:  names[1],
			CarrierName:     s.carrierNames[e.CarrierID],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
