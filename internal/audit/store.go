package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEntry is one event awaiting export.
type OutboxEntry struct {
	ID        uuid.UUID
	Action    Action
	Payload   []byte
	CreatedAt time.Time
}

// Store persists audit events using the transactional outbox pattern: Append
// writes through the caller's transaction when one is in the context, so the
// event commits with the operation it describes.
type Store interface {
	Append(ctx context.Context, event Event) error

	// FetchPending returns unpublished entries oldest first, up to limit.
	FetchPending(ctx context.Context, limit int) ([]OutboxEntry, error)

	// MarkPublished stamps entries as exported.
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}
