package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
	"agentbook/pkg/requestcontext"
)

// PostgresStore persists agent settings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed agent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, settings *AgentSettings) error {
	query := `
		INSERT INTO agent_settings (id, username, password_hash, agency_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		settings.AgentID, settings.Username, settings.PasswordHash,
		settings.AgencyName, settings.CreatedAt, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create agent settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*AgentSettings, error) {
	query := `
		SELECT id, username, password_hash, agency_name, created_at, updated_at
		FROM agent_settings WHERE username = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, username))
}

func (s *PostgresStore) FindByID(ctx context.Context, agentID id.AgentID) (*AgentSettings, error) {
	query := `
		SELECT id, username, password_hash, agency_name, created_at, updated_at
		FROM agent_settings WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, agentID))
}

func (s *PostgresStore) scanOne(row *sql.Row) (*AgentSettings, error) {
	var settings AgentSettings
	err := row.Scan(&settings.AgentID, &settings.Username, &settings.PasswordHash,
		&settings.AgencyName, &settings.CreatedAt, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan agent settings: %w", err)
	}
	return &settings, nil
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, agentID id.AgentID, hash string) error {
	query := `UPDATE agent_settings SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, agentID, hash, requestcontext.Now(ctx))
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM agent_settings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count agent settings: %w", err)
	}
	return count, nil
}
