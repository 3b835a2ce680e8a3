package carriersync

import (
	"context"
	"sort"
	"sync"
	"time"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// MemoryStore is the in-memory twin of the Postgres store. Service tests run
// against it; it also serves as the default when no database is wired.
type MemoryStore struct {
	mu          sync.Mutex
	enrollments map[id.EnrollmentID]*memEnrollment
	logs        []SyncLogEntry
	carriers    map[id.CarrierID]string
	unavailable bool
}

type memEnrollment struct {
	row             LocalEnrollment
	carrierID       id.CarrierID
	active          bool
	clientActive    bool
	reason          *string
	terminationDate *time.Time
	updatedAt       time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enrollments: make(map[id.EnrollmentID]*memEnrollment),
		carriers:    make(map[id.CarrierID]string),
	}
}

// SeedEnrollment registers an enrollment for a carrier. Both flags default to
// active; tests flip them through SetEnrollmentActive and SetClientActive.
func (s *MemoryStore) SeedEnrollment(carrierID id.CarrierID, row LocalEnrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[row.EnrollmentID] = &memEnrollment{
		row:          row,
		carrierID:    carrierID,
		active:       true,
		clientActive: true,
	}
}

// SeedCarrier records a carrier name for log joins.
func (s *MemoryStore) SeedCarrier(carrierID id.CarrierID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carriers[carrierID] = name
}

// SetEnrollmentActive flips the enrollment-level active flag.
func (s *MemoryStore) SetEnrollmentActive(enrollmentID id.EnrollmentID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.enrollments[enrollmentID]; ok {
		e.active = active
	}
}

// SetClientActive flips the owning client's active flag.
func (s *MemoryStore) SetClientActive(enrollmentID id.EnrollmentID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.enrollments[enrollmentID]; ok {
		e.clientActive = active
	}
}

// SetUnavailable makes every call fail with sentinel.ErrUnavailable.
func (s *MemoryStore) SetUnavailable(unavailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = unavailable
}

// EnrollmentState reports the stored status, reason and termination date for
// assertions.
func (s *MemoryStore) EnrollmentState(enrollmentID id.EnrollmentID) (status string, reason *string, terminationDate *time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.enrollments[enrollmentID]
	if !found {
		return "", nil, nil, false
	}
	return e.row.Status, e.reason, e.terminationDate, true
}

func (s *MemoryStore) ListActiveEnrollments(ctx context.Context, carrierID id.CarrierID) ([]LocalEnrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return nil, sentinel.ErrUnavailable
	}

	var out []LocalEnrollment
	for _, e := range s.enrollments {
		if e.carrierID != carrierID || !e.active || !e.clientActive {
			continue
		}
		if e.row.Status != StatusActive && e.row.Status != StatusPending {
			continue
		}
		out = append(out, e.row)
	}
	// Map iteration order is random; keep load order deterministic.
	sort.Slice(out, func(i, j int) bool {
		return out[i].EnrollmentID.String() < out[j].EnrollmentID.String()
	})
	return out, nil
}

func (s *MemoryStore) Disenroll(ctx context.Context, enrollmentID id.EnrollmentID, reason string, terminationDate, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return sentinel.ErrUnavailable
	}
	e, ok := s.enrollments[enrollmentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.row.Status = StatusDisenrolled
	e.reason = &reason
	td := terminationDate
	e.terminationDate = &td
	e.updatedAt = updatedAt
	return nil
}

func (s *MemoryStore) AppendLog(ctx context.Context, entry SyncLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return sentinel.ErrUnavailable
	}
	if name, ok := s.carriers[entry.CarrierID]; ok && entry.CarrierName == nil {
		entry.CarrierName = &name
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *MemoryStore) ListLogs(ctx context.Context, carrierID *id.CarrierID, limit int) ([]SyncLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return nil, sentinel.ErrUnavailable
	}

	var out []SyncLogEntry
	for _, entry := range s.logs {
		if carrierID != nil && entry.CarrierID != *carrierID {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SyncedAt.After(out[j].SyncedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryTxRunner serializes transactions with a coarse lock. Rollback is not
// simulated; engine tests that need abort behavior assert through a failing
// store call ordered before any mutation.
type MemoryTxRunner struct {
	mu sync.Mutex
}

// NewMemoryTxRunner creates a coarse-lock transaction runner.
func NewMemoryTxRunner() *MemoryTxRunner {
	return &MemoryTxRunner{}
}

func (r *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
