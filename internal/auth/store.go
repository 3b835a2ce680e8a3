package auth

import (
	"context"

	id "agentbook/pkg/domain"
)

// Store persists the agent account. The server is single-agent; Count guards
// bootstrap so a second account is never created implicitly.
type Store interface {
	Create(ctx context.Context, settings *AgentSettings) error
	FindByUsername(ctx context.Context, username string) (*AgentSettings, error)
	FindByID(ctx context.Context, agentID id.AgentID) (*AgentSettings, error)
	UpdatePasswordHash(ctx context.Context, agentID id.AgentID, hash string) error
	Count(ctx context.Context) (int, error)
}
