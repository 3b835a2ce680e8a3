package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "agentbook/pkg/domain"
	"agentbook/pkg/platform/sentinel"
)

// PostgresStore persists conversations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed conversation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const conversationColumns = `id, client_id, occurred_at, channel, summary,
	follow_up_date, follow_up_done, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *Conversation) error {
	query := `
		INSERT INTO conversations (` + conversationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.ClientID, c.OccurredAt, c.Channel, c.Summary,
		c.FollowUpDate, c.FollowUpDone, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *Conversation) error {
	query := `
		UPDATE conversations
		SET occurred_at = $2, channel = $3, summary = $4,
		    follow_up_date = $5, follow_up_done = $6, updated_at = $7
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		c.ID, c.OccurredAt, c.Channel, c.Summary,
		c.FollowUpDate, c.FollowUpDone, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, conversationID id.ConversationID) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	var c Conversation
	err := s.db.QueryRowContext(ctx, query, conversationID).Scan(
		&c.ID, &c.ClientID, &c.OccurredAt, &c.Channel, &c.Summary,
		&c.FollowUpDate, &c.FollowUpDone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListByClient(ctx context.Context, clientID id.ClientID) ([]Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE client_id = $1
		ORDER BY occurred_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.ClientID, &c.OccurredAt, &c.Channel, &c.Summary,
			&c.FollowUpDate, &c.FollowUpDone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListPendingFollowUps(ctx context.Context) ([]FollowUp, error) {
	query := `
		SELECT c.id, c.client_id, c.occurred_at, c.channel, c.summary,
		       c.follow_up_date, c.follow_up_done, c.created_at, c.updated_at,
		       cl.first_name, cl.last_name
		FROM conversations c
		JOIN clients cl ON cl.id = c.client_id
		WHERE c.follow_up_date IS NOT NULL
		  AND c.follow_up_done = FALSE
		  AND cl.is_active = TRUE
		ORDER BY c.follow_up_date, c.occurred_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	var out []FollowUp
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(&f.ID, &f.ClientID, &f.OccurredAt, &f.Channel, &f.Summary,
			&f.FollowUpDate, &f.FollowUpDone, &f.CreatedAt, &f.UpdatedAt,
			&f.ClientFirstName, &f.ClientLastName); err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow-ups: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListSystemEvents(ctx context.Context, clientID id.ClientID) ([]SystemEvent, error) {
	query := `
		SELECT coalesce(e.termination_date, e.updated_at), e.plan_name,
		       coalesce(ca.name, ''), e.disenrollment_reason
		FROM enrollments e
		LEFT JOIN carriers ca ON ca.id = e.carrier_id
		WHERE e.client_id = $1 AND e.status = 'DISENROLLED'
		ORDER BY 1 DESC`
	rows, err := s.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list system events: %w", err)
	}
	defer rows.Close()

	var out []SystemEvent
	for rows.Next() {
		var e SystemEvent
		if err := rows.Scan(&e.OccurredAt, &e.PlanName, &e.CarrierName, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan system event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate system events: %w", err)
	}
	return out, nil
}
