package client

import (
	"context"
	"time"

	id "agentbook/pkg/domain"
)

// Store persists clients.
type Store interface {
	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, c *Client) error
	FindByID(ctx context.Context, clientID id.ClientID) (*Client, error)
	// List applies the filter and returns one page plus the total match count.
	List(ctx context.Context, filter Filter) ([]Client, int, error)
	// Deactivate soft-deletes: flips is_active off and touches updated_at.
	Deactivate(ctx context.Context, clientID id.ClientID, updatedAt time.Time) error
}
