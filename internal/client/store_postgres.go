package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// PostgresStore persists clients in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed client store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const clientColumns = `id, first_name, last_name, mbi, date_of_birth, phone, email,
	street, city, state, zip, dual_eligible, is_active, notes, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.FirstName, c.LastName, c.MBI, c.DateOfBirth, c.Phone, c.Email,
		c.Street, c.City, c.State, c.Zip, c.DualEligible, c.IsActive, c.Notes,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *Client) error {
	query := `
		UPDATE clients
		SET first_name = $2, last_name = $3, mbi = $4, date_of_birth = $5,
		    phone = $6, email = $7, street = $8, city = $9, state = $10, zip = $11,
		    dual_eligible = $12, notes = $13, updated_at = $14
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		c.ID, c.FirstName, c.LastName, c.MBI, c.DateOfBirth,
		c.Phone, c.Email, c.Street, c.City, c.State, c.Zip,
		c.DualEligible, c.Notes, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID id.ClientID) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, clientID)
	c, err := scanClient(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return c, nil
}

// List builds its WHERE clause as fragments appended in lockstep with the bind
// slice, so filter values are always bound, never formatted into the query.
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Client, int, error) {
	where, args := buildFilter(filter)

	var total int
	countQuery := `SELECT count(*) FROM clients` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	pageQuery := fmt.Sprintf(`SELECT `+clientColumns+` FROM clients%s
		ORDER BY last_name, first_name, id
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate clients: %w", err)
	}
	return out, total, nil
}

func buildFilter(filter Filter) (string, []any) {
	var clauses []string
	var args []any

	if !filter.IncludeInactive {
		clauses = append(clauses, "is_active = TRUE")
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR mbi ILIKE $%d)", n, n, n))
	}
	if filter.State != "" {
		args = append(args, strings.ToUpper(filter.State))
		clauses = append(clauses, fmt.Sprintf("upper(state) = $%d", len(args)))
	}
	if filter.Zip != "" {
		args = append(args, filter.Zip)
		clauses = append(clauses, fmt.Sprintf("zip = $%d", len(args)))
	}
	if filter.DualEligible != nil {
		args = append(args, *filter.DualEligible)
		clauses = append(clauses, fmt.Sprintf("dual_eligible = $%d", len(args)))
	}
	if filter.CarrierID != nil {
		args = append(args, *filter.CarrierID)
		clauses = append(clauses, fmt.Sprintf(
			"id IN (SELECT client_id FROM enrollments WHERE carrier_id = $%d AND is_active = TRUE)",
			len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *PostgresStore) Deactivate(ctx context.Context, clientID id.ClientID, updatedAt time.Time) error {
	query := `UPDATE clients SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, clientID, updatedAt)
	if err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanClient(scan func(dest ...any) error) (*Client, error) {
	var c Client
	err := scan(&c.ID, &c.FirstName, &c.LastName, &c.MBI, &c.DateOfBirth,
		&c.Phone, &c.Email, &c.Street, &c.City, &c.State, &c.Zip,
		&c.DualEligible, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
