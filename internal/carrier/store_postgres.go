package carrier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// PostgresStore persists carriers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed carrier store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, c *Carrier) error {
	query := `
		INSERT INTO carriers (id, name, short_name, portal_key, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.ShortName, c.PortalKey, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create carrier: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *Carrier) error {
	query := `
		UPDATE carriers
		SET name = $2, short_name = $3, portal_key = $4, is_active = $5, updated_at = $6
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.ShortName, c.PortalKey, c.IsActive, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update carrier: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update carrier: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, carrierID id.CarrierID) (*Carrier, error) {
	query := `
		SELECT id, name, short_name, portal_key, is_active, created_at, updated_at
		FROM carriers WHERE id = $1`
	var c Carrier
	err := s.db.QueryRowContext(ctx, query, carrierID).Scan(
		&c.ID, &c.Name, &c.ShortName, &c.PortalKey, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find carrier: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListWithCounts(ctx context.Context) ([]WithCounts, error) {
	query := `
		SELECT c.id, c.name, c.short_name, c.portal_key, c.is_active, c.created_at, c.updated_at,
		       count(e.id) FILTER (WHERE e.status = 'ACTIVE' AND e.is_active = TRUE) AS active_enrollments
		FROM carriers c
		LEFT JOIN enrollments e ON e.carrier_id = c.id
		GROUP BY c.id
		ORDER BY c.name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list carriers: %w", err)
	}
	defer rows.Close()

	var out []WithCounts
	for rows.Next() {
		var c WithCounts
		if err := rows.Scan(&c.ID, &c.Name, &c.ShortName, &c.PortalKey, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt, &c.ActiveEnrollments); err != nil {
			return nil, fmt.Errorf("scan carrier: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate carriers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListWithPortalKeys(ctx context.Context) ([]Carrier, error) {
	query := `
		SELECT id, name, short_name, portal_key, is_active, created_at, updated_at
		FROM carriers
		WHERE is_active = TRUE AND portal_key <> ''
		ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list portal carriers: %w", err)
	}
	defer rows.Close()

	var out []Carrier
	for rows.Next() {
		var c Carrier
		if err := rows.Scan(&c.ID, &c.Name, &c.ShortName, &c.PortalKey, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan carrier: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portal carriers: %w", err)
	}
	return out, nil
}
