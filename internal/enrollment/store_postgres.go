package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// PostgresStore persists enrollments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed enrollment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const enrollmentColumns = `id, client_id, carrier_id, plan_name, plan_type,
	contract_number, pbp_number, effective_date, termination_date, application_date,
	status, enrollment_period, disenrollment_reason, premium_cents, is_active,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, e *Enrollment) error {
	query := `
		INSERT INTO enrollments (` + enrollmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.ClientID, e.CarrierID, e.PlanName, e.PlanType,
		e.ContractNumber, e.PBPNumber, e.EffectiveDate, e.TerminationDate, e.ApplicationDate,
		e.Status, e.EnrollmentPeriod, e.DisenrollmentReason, e.PremiumCents, e.IsActive,
		e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, e *Enrollment) error {
	query := `
		UPDATE enrollments
		SET plan_name = $2, plan_type = $3, contract_number = $4, pbp_number = $5,
		    effective_date = $6, termination_date = $7, application_date = $8,
		    status = $9, enrollment_period = $10, disenrollment_reason = $11,
		    premium_cents = $12, is_active = $13, updated_at = $14
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		e.ID, e.PlanName, e.PlanType, e.ContractNumber, e.PBPNumber,
		e.EffectiveDate, e.TerminationDate, e.ApplicationDate,
		e.Status, e.EnrollmentPeriod, e.DisenrollmentReason,
		e.PremiumCents, e.IsActive, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, enrollmentID)
	e, err := scanEnrollment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context, clientID *id.ClientID) ([]WithNames, error) {
	query := `
		SELECT e.id, e.client_id, e.carrier_id, e.plan_name, e.plan_type,
		       e.contract_number, e.pbp_number, e.effective_date, e.termination_date,
		       e.application_date, e.status, e.enrollment_period, e.disenrollment_reason,
		       e.premium_cents, e.is_active, e.created_at, e.updated_at,
		       cl.first_name, cl.last_name, ca.name
		FROM enrollments e
		JOIN clients cl ON cl.id = e.client_id
		JOIN carriers ca ON ca.id = e.carrier_id`
	var args []any
	if clientID != nil {
		args = append(args, *clientID)
		query += fmt.Sprintf(" WHERE e.client_id = $%d", len(args))
	}
	query += " ORDER BY e.created_at DESC, e.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []WithNames
	for rows.Next() {
		var w WithNames
		if err := rows.Scan(&w.ID, &w.ClientID, &w.CarrierID, &w.PlanName, &w.PlanType,
			&w.ContractNumber, &w.PBPNumber, &w.EffectiveDate, &w.TerminationDate,
			&w.ApplicationDate, &w.Status, &w.EnrollmentPeriod, &w.DisenrollmentReason,
			&w.PremiumCents, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
			&w.ClientFirstName, &w.ClientLastName, &w.CarrierName); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return out, nil
}

func scanEnrollment(scan func(dest ...any) error) (*Enrollment, error) {
	var e Enrollment
	err := scan(&e.ID, &e.ClientID, &e.CarrierID, &e.PlanName, &e.PlanType,
		&e.ContractNumber, &e.PBPNumber, &e.EffectiveDate, &e.TerminationDate,
		&e.ApplicationDate, &e.Status, &e.EnrollmentPeriod, &e.DisenrollmentReason,
		&e.PremiumCents, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
