//go:build integration

package carriersync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agentbook/internal/carriersync"
	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
	"agentbook/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *carriersync.PostgresStore
	txr      *carriersync.PostgresTxRunner
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = carriersync.NewPostgres(s.postgres.DB)
	s.txr = carriersync.NewPostgresTxRunner(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "carrier_sync_logs", "enrollments", "clients", "carriers")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedCarrier(name string) id.CarrierID {
	carrierID := id.CarrierID(uuid.New())
	_, err := s.postgres.DB.Exec(
		`INSERT INTO carriers (id, name, is_active, created_at, updated_at) VALUES ($1, $2, TRUE, now(), now())`,
		carrierID.String(), name)
	s.Require().NoError(err)
	return carrierID
}

func (s *PostgresStoreSuite) seedClient(first, last string, mbi *string, active bool) id.ClientID {
	clientID := id.ClientID(uuid.New())
	_, err := s.postgres.DB.Exec(
		`INSERT INTO clients (id, first_name, last_name, mbi, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())`,
		clientID.String(), first, last, mbi, active)
	s.Require().NoError(err)
	return clientID
}

func (s *PostgresStoreSuite) seedEnrollment(clientID id.ClientID, carrierID id.CarrierID, status string, active bool) id.EnrollmentID {
	enrollmentID := id.EnrollmentID(uuid.New())
	_, err := s.postgres.DB.Exec(
		`INSERT INTO enrollments (id, client_id, carrier_id, status, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())`,
		enrollmentID.String(), clientID.String(), carrierID.String(), status, active)
	s.Require().NoError(err)
	return enrollmentID
}

func (s *PostgresStoreSuite) TestListActiveEnrollmentsFilters() {
	ctx := context.Background()
	carrierID := s.seedCarrier("Devoted Health")
	otherCarrier := s.seedCarrier("Humana")

	mbi := "1EG4-TE5-MK72"
	activeClient := s.seedClient("Alice", "Nguyen", &mbi, true)
	inactiveClient := s.seedClient("Bob", "Smith", nil, false)

	wantActive := s.seedEnrollment(activeClient, carrierID, "ACTIVE", true)
	wantPending := s.seedEnrollment(activeClient, carrierID, "PENDING", true)
	s.seedEnrollment(activeClient, carrierID, "DISENROLLED", true)
	s.seedEnrollment(activeClient, carrierID, "ACTIVE", false)
	s.seedEnrollment(inactiveClient, carrierID, "ACTIVE", true)
	s.seedEnrollment(activeClient, otherCarrier, "ACTIVE", true)

	rows, err := s.store.ListActiveEnrollments(ctx, carrierID)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	got := map[id.EnrollmentID]carriersync.LocalEnrollment{}
	for _, row := range rows {
		got[row.EnrollmentID] = row
	}
	s.Contains(got, wantActive)
	s.Contains(got, wantPending)
	s.Equal("Alice", got[wantActive].ClientFirstName)
	s.Require().NotNil(got[wantActive].ClientMBI)
	s.Equal(mbi, *got[wantActive].ClientMBI)
}

func (s *PostgresStoreSuite) TestDisenrollStampsRow() {
	ctx := context.Background()
	carrierID := s.seedCarrier("Devoted Health")
	clientID := s.seedClient("Alice", "Nguyen", nil, true)
	enrollmentID := s.seedEnrollment(clientID, carrierID, "ACTIVE", true)

	termination := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	err := s.store.Disenroll(ctx, enrollmentID, carriersync.DisenrollmentReason, termination, now)
	s.Require().NoError(err)

	var status, reason string
	var terminationDate time.Time
	err = s.postgres.DB.QueryRow(
		`SELECT status, disenrollment_reason, termination_date FROM enrollments WHERE id = $1`,
		enrollmentID.String()).Scan(&status, &reason, &terminationDate)
	s.Require().NoError(err)
	s.Equal("DISENROLLED", status)
	s.Equal(carriersync.DisenrollmentReason, reason)
	s.Equal(termination.Format("2006-01-02"), terminationDate.Format("2006-01-02"))
}

func (s *PostgresStoreSuite) TestDisenrollMissingRow() {
	err := s.store.Disenroll(context.Background(), id.EnrollmentID(uuid.New()),
		carriersync.DisenrollmentReason, time.Now(), time.Now())
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestLogsNewestFirstWithCarrierName() {
	ctx := context.Background()
	carrierID := s.seedCarrier("Devoted Health")

	base := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.store.AppendLog(ctx, carriersync.SyncLogEntry{
			ID:        id.SyncRunID(uuid.New()),
			CarrierID: carrierID,
			SyncedAt:  base.Add(time.Duration(i) * time.Hour),
			Status:    carriersync.SyncLogStatusCompleted,
		})
		s.Require().NoError(err)
	}

	logs, err := s.store.ListLogs(ctx, nil, 2)
	s.Require().NoError(err)
	s.Require().Len(logs, 2)
	s.True(logs[0].SyncedAt.After(logs[1].SyncedAt))
	s.Require().NotNil(logs[0].CarrierName)
	s.Equal("Devoted Health", *logs[0].CarrierName)
}

func (s *PostgresStoreSuite) TestLogSurvivesCarrierDeletion() {
	ctx := context.Background()
	carrierID := s.seedCarrier("Devoted Health")
	err := s.store.AppendLog(ctx, carriersync.SyncLogEntry{
		ID:        id.SyncRunID(uuid.New()),
		CarrierID: carrierID,
		SyncedAt:  time.Now().UTC(),
		Status:    carriersync.SyncLogStatusCompleted,
	})
	s.Require().NoError(err)

	_, err = s.postgres.DB.Exec(`DELETE FROM carriers WHERE id = $1`, carrierID.String())
	s.Require().NoError(err)

	logs, err := s.store.ListLogs(ctx, &carrierID, 50)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Nil(logs[0].CarrierName)
}

func (s *PostgresStoreSuite) TestTransactionRollsBackWholeRun() {
	ctx := context.Background()
	carrierID := s.seedCarrier("Devoted Health")
	clientID := s.seedClient("Alice", "Nguyen", nil, true)
	enrollmentID := s.seedEnrollment(clientID, carrierID, "ACTIVE", true)

	boom := errors.New("boom")
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Disenroll(ctx, enrollmentID,
			carriersync.DisenrollmentReason, time.Now(), time.Now()); err != nil {
			return err
		}
		if err := s.store.AppendLog(ctx, carriersync.SyncLogEntry{
			ID:        id.SyncRunID(uuid.New()),
			CarrierID: carrierID,
			SyncedAt:  time.Now().UTC(),
			Status:    carriersync.SyncLogStatusCompleted,
		}); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	var status string
	s.Require().NoError(s.postgres.DB.QueryRow(
		`SELECT status FROM enrollments WHERE id = $1`, enrollmentID.String()).Scan(&status))
	s.Equal("ACTIVE", status)

	logs, err := s.store.ListLogs(ctx, nil, 50)
	s.Require().NoError(err)
	s.Empty(logs)
}
