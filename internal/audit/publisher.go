package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Publisher emits audit events with fail-closed semantics: Emit blocks until
// the outbox write succeeds, and a failure must fail the calling operation.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

// NewPublisher creates a publisher over an outbox-backed store.
func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Emit synchronously writes one event to the outbox. When the context
// carries a transaction the write joins it.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit persistence failed",
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("audit persistence failed: %w", err)
	}
	return nil
}
