package carriersync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agentbook/internal/audit"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *MemoryStore
	svc       *Service
	carrierID id.CarrierID
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.svc = New(s.store, NewMemoryTxRunner(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.carrierID = id.CarrierID(uuid.New())
	s.now = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store.SeedCarrier(s.carrierID, "Devoted Health")
}

func (s *ServiceSuite) seed(first, last string, mbi *string) LocalEnrollment {
	row := local(first, last, mbi)
	s.store.SeedEnrollment(s.carrierID, row)
	return row
}

func (s *ServiceSuite) TestAllMatchedNothingChanges() {
	alice := s.seed("Alice", "Nguyen", strPtr("1EG4-TE5-MK72"))
	bob := s.seed("Bob", "Smith", nil)

	result, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", []PortalMember{
		{FirstName: "x", LastName: "y", MemberID: strPtr("1eg4-te5-mk72")},
		{FirstName: "BOB", LastName: "smith"},
	})
	s.Require().NoError(err)

	s.Equal("Devoted Health", result.CarrierName)
	s.Equal(2, result.PortalCount)
	s.Equal(2, result.LocalCount)
	s.Equal(2, result.Matched)
	s.Empty(result.Disenrolled)
	s.Empty(result.NewInPortal)

	for _, e := range []LocalEnrollment{alice, bob} {
		status, reason, _, ok := s.store.EnrollmentState(e.EnrollmentID)
		s.Require().True(ok)
		s.Equal(StatusActive, status)
		s.Nil(reason)
	}
}

func (s *ServiceSuite) TestUnseenLocalDisenrolled() {
	kept := s.seed("Alice", "Nguyen", strPtr("1EG4-TE5-MK72"))
	gone := s.seed("Bob", "Smith", nil)

	result, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", []PortalMember{
		{FirstName: "Alice", LastName: "Nguyen"},
	})
	s.Require().NoError(err)

	s.Equal(1, result.Matched)
	s.Require().Len(result.Disenrolled, 1)
	s.Equal(gone.EnrollmentID, result.Disenrolled[0].EnrollmentID)
	s.Equal("Bob Smith", result.Disenrolled[0].ClientName)

	status, reason, termination, ok := s.store.EnrollmentState(gone.EnrollmentID)
	s.Require().True(ok)
	s.Equal(StatusDisenrolled, status)
	s.Require().NotNil(reason)
	s.Equal(DisenrollmentReason, *reason)
	s.Require().NotNil(termination)
	s.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *termination)

	status, _, _, _ = s.store.EnrollmentState(kept.EnrollmentID)
	s.Equal(StatusActive, status)
}

func (s *ServiceSuite) TestEmptyPortalDisenrollsEverything() {
	s.seed("Alice", "Nguyen", nil)
	s.seed("Bob", "Smith", nil)

	result, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", nil)
	s.Require().NoError(err)

	s.Equal(0, result.PortalCount)
	s.Equal(0, result.Matched)
	s.Len(result.Disenrolled, 2)
	s.Empty(result.NewInPortal)
}

func (s *ServiceSuite) TestEmptyBookReportsEveryoneNew() {
	members := []PortalMember{
		{FirstName: "Alice", LastName: "Nguyen"},
		{FirstName: "Bob", LastName: "Smith"},
	}
	result, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", members)
	s.Require().NoError(err)

	s.Equal(0, result.LocalCount)
	s.Equal(0, result.Matched)
	s.Empty(result.Disenrolled)
	s.Equal(members, result.NewInPortal)
}

func (s *ServiceSuite) TestInactiveRowsExcluded() {
	inactive := s.seed("Alice", "Nguyen", nil)
	s.store.SetEnrollmentActive(inactive.EnrollmentID, false)
	inactiveClient := s.seed("Bob", "Smith", nil)
	s.store.SetClientActive(inactiveClient.EnrollmentID, false)

	result, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", nil)
	s.Require().NoError(err)

	// Excluded rows are neither matched nor disenrolled.
	s.Equal(0, result.LocalCount)
	s.Empty(result.Disenrolled)
	status, _, _, _ := s.store.EnrollmentState(inactive.EnrollmentID)
	s.Equal(StatusActive, status)
}

func (s *ServiceSuite) TestSecondRunIsStable() {
	s.seed("Alice", "Nguyen", nil)
	s.seed("Bob", "Smith", nil)
	members := []PortalMember{{FirstName: "Alice", LastName: "Nguyen"}}

	first, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", members)
	s.Require().NoError(err)
	s.Len(first.Disenrolled, 1)

	// The disenrolled record left the active set, so a rerun with the same
	// portal list terminates nothing further.
	second, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", members)
	s.Require().NoError(err)
	s.Equal(1, second.LocalCount)
	s.Empty(second.Disenrolled)
}

func (s *ServiceSuite) TestRunAppendsOneLogEntry() {
	s.seed("Alice", "Nguyen", nil)

	_, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", []PortalMember{
		{FirstName: "Alice", LastName: "Nguyen"},
		{FirstName: "New", LastName: "Member"},
	})
	s.Require().NoError(err)

	logs, err := s.svc.GetSyncLogs(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	entry := logs[0]
	s.Equal(s.carrierID, entry.CarrierID)
	s.Equal(s.now, entry.SyncedAt)
	s.Equal(2, entry.PortalCount)
	s.Equal(1, entry.Matched)
	s.Equal(0, entry.Disenrolled)
	s.Equal(1, entry.NewFound)
	s.Equal(SyncLogStatusCompleted, entry.Status)
	s.Require().NotNil(entry.CarrierName)
	s.Equal("Devoted Health", *entry.CarrierName)
}

func (s *ServiceSuite) TestFailedRunWritesNoLogEntry() {
	s.seed("Alice", "Nguyen", nil)
	store := &failingStore{MemoryStore: s.store}
	svc := New(store, NewMemoryTxRunner(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := svc.RunSync(s.ctx, s.carrierID, "Devoted Health", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	logs, err := s.svc.GetSyncLogs(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(logs)
}

func (s *ServiceSuite) TestStoreUnavailableSurfacesCode() {
	s.store.SetUnavailable(true)

	_, err := s.svc.RunSync(s.ctx, s.carrierID, "Devoted Health", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = s.svc.GetSyncLogs(s.ctx, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestNilCarrierRejected() {
	_, err := s.svc.RunSync(s.ctx, id.CarrierID{}, "Devoted Health", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestAuditEventCommittedWithRun() {
	publisher := &capturingPublisher{}
	svc := New(s.store, NewMemoryTxRunner(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher))
	s.seed("Alice", "Nguyen", nil)

	_, err := svc.RunSync(s.ctx, s.carrierID, "Devoted Health", nil)
	s.Require().NoError(err)

	s.Require().Len(publisher.events, 1)
	event := publisher.events[0]
	s.Equal(audit.ActionSyncCompleted, event.Action)
	s.Equal(s.carrierID.String(), event.CarrierID)
	s.NotEmpty(event.SyncRunID)
}

func (s *ServiceSuite) TestLogHistoryNewestFirstAndCapped() {
	for i := 0; i < 60; i++ {
		err := s.store.AppendLog(s.ctx, SyncLogEntry{
			ID:        id.SyncRunID(uuid.New()),
			CarrierID: s.carrierID,
			SyncedAt:  s.now.Add(time.Duration(i) * time.Minute),
			Status:    SyncLogStatusCompleted,
		})
		s.Require().NoError(err)
	}

	logs, err := s.svc.GetSyncLogs(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(logs, 50)
	for i := 1; i < len(logs); i++ {
		s.False(logs[i].SyncedAt.After(logs[i-1].SyncedAt), "logs must be newest first")
	}
	s.Equal(s.now.Add(59*time.Minute), logs[0].SyncedAt)
}

func (s *ServiceSuite) TestLogHistoryFilteredByCarrier() {
	other := id.CarrierID(uuid.New())
	for _, cid := range []id.CarrierID{s.carrierID, other} {
		err := s.store.AppendLog(s.ctx, SyncLogEntry{
			ID:        id.SyncRunID(uuid.New()),
			CarrierID: cid,
			SyncedAt:  s.now,
			Status:    SyncLogStatusCompleted,
		})
		s.Require().NoError(err)
	}

	logs, err := s.svc.GetSyncLogs(s.ctx, &other)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(other, logs[0].CarrierID)
}

type failingStore struct {
	*MemoryStore
}

func (f *failingStore) AppendLog(ctx context.Context, entry SyncLogEntry) error {
	return errors.New("disk full")
}

type capturingPublisher struct {
	events []audit.Event
}

func (p *capturingPublisher) Emit(ctx context.Context, event audit.Event) error {
	p.events = append(p.events, event)
	return nil
}
