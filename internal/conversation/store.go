package conversation

import (
	"context"

	id "agentbook/pkg/domain"
)

// Store persists conversations and reads timeline source data.
type Store interface {
	Create(ctx context.Context, c *Conversation) error
	Update(ctx context.Context, c *Conversation) error
	FindByID(ctx context.Context, conversationID id.ConversationID) (*Conversation, error)
	// ListByClient returns a client's conversations, newest first.
	ListByClient(ctx context.Context, clientID id.ClientID) ([]Conversation, error)
	// ListPendingFollowUps returns conversations with an open follow-up,
	// soonest due first, joined to the client name.
	ListPendingFollowUps(ctx context.Context) ([]FollowUp, error)
	// ListSystemEvents returns machine-generated timeline entries for a
	// client, currently their disenrollments.
	ListSystemEvents(ctx context.Context, clientID id.ClientID) ([]SystemEvent, error)
}
