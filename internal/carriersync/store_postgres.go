package carriersync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
	"agentbook/pkg/platform/tx"
)

// PostgresStore persists sync state in PostgreSQL. Every query routes through
// the transaction carried in the context when one is present, so a whole run
// commits or rolls back as a unit.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed sync store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const listActiveEnrollmentsSQL = `
SELECT e.id, e.client_id, e.status, e.plan_name, c.first_name, c.last_name, c.mbi
FROM enrollments e
JOIN clients c ON c.id = e.client_id
WHERE e.carrier_id = $1
  AND e.status IN ('ACTIVE', 'PENDING')
  AND e.is_active = TRUE
  AND c.is_active = TRUE
ORDER BY e.created_at, e.id`

func (s *PostgresStore) ListActiveEnrollments(ctx context.Context, carrierID id.CarrierID) ([]LocalEnrollment, error) {
	rows, err := s.q(ctx).QueryContext(ctx, listActiveEnrollmentsSQL, carrierID.String())
	if err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	defer rows.Close()

	var out []LocalEnrollment
	for rows.Next() {
		var e LocalEnrollment
		if err := rows.Scan(&e.EnrollmentID, &e.ClientID, &e.Status, &e.PlanName,
			&e.ClientFirstName, &e.ClientLastName, &e.ClientMBI); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return out, nil
}

const disenrollSQL = `
UPDATE enrollments
SET status = 'DISENROLLED',
    disenrollment_reason = $2,
    termination_date = $3,
    updated_at = $4
WHERE id = $1`

func (s *PostgresStore) Disenroll(ctx context.Context, enrollmentID id.EnrollmentID, reason string, terminationDate, updatedAt time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx, disenrollSQL,
		enrollmentID.String(), reason, terminationDate, updatedAt)
	if err != nil {
		return fmt.Errorf("disenroll %s: %w", enrollmentID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("disenroll %s: %w", enrollmentID, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const appendLogSQL = `
INSERT INTO carrier_sync_logs
  (id, carrier_id, synced_at, portal_count, matched_count, disenrolled_count, new_found_count, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (s *PostgresStore) AppendLog(ctx context.Context, entry SyncLogEntry) error {
	_, err := s.q(ctx).ExecContext(ctx, appendLogSQL,
		entry.ID.String(), entry.CarrierID.String(), entry.SyncedAt,
		entry.PortalCount, entry.Matched, entry.Disenrolled, entry.NewFound,
		entry.Status)
	if err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}
	return nil
}

const listLogsSQL = `
SELECT l.id, l.carrier_id, c.name, l.synced_at,
       l.portal_count, l.matched_count, l.disenrolled_count, l.new_found_count, l.status
FROM carrier_sync_logs l
LEFT JOIN carriers c ON c.id = l.carrier_id`

func (s *PostgresStore) ListLogs(ctx context.Context, carrierID *id.CarrierID, limit int) ([]SyncLogEntry, error) {
	query := listLogsSQL
	args := []any{}
	if carrierID != nil {
		query += "\nWHERE l.carrier_id = $1"
		args = append(args, carrierID.String())
	}
	query += fmt.Sprintf("\nORDER BY l.synced_at DESC\nLIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	defer rows.Close()

	var out []SyncLogEntry
	for rows.Next() {
		var entry SyncLogEntry
		if err := rows.Scan(&entry.ID, &entry.CarrierID, &entry.CarrierName,
			&entry.SyncedAt, &entry.PortalCount, &entry.Matched,
			&entry.Disenrolled, &entry.NewFound, &entry.Status); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync logs: %w", err)
	}
	return out, nil
}

// PostgresTxRunner wraps a run in one database transaction, carried through
// the context so participating stores share it.
type PostgresTxRunner struct {
	db      *sql.DB
	timeout time.Duration
}

const defaultTxTimeout = 30 * time.Second

// NewPostgresTxRunner constructs a transaction runner over db.
func NewPostgresTxRunner(db *sql.DB) *PostgresTxRunner {
	return &PostgresTxRunner{db: db, timeout: defaultTxTimeout}
}

func (r *PostgresTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		if errors.Is(err, sql.ErrConnDone) {
			return sentinel.ErrUnavailable
		}
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, dbTx)); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
