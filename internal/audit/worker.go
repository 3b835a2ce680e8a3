package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Exporter is the Kafka side of the outbox drain. Satisfied by
// internal/platform/kafka.Producer.
type Exporter interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Worker drains the outbox to the exporter on an interval. Entries stay
// pending until the broker acknowledged them, so a crash between publish and
// mark can replay events; consumers must tolerate duplicates.
type Worker struct {
	store    Store
	exporter Exporter
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.interval = d }
}

// WithBatchSize overrides how many entries drain per tick.
func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) { w.batch = n }
}

// NewWorker constructs the outbox drain worker.
func NewWorker(store Store, exporter Exporter, logger *slog.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:    store,
		exporter: exporter,
		logger:   logger,
		interval: 5 * time.Second,
		batch:    100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				w.logger.WarnContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

// DrainOnce publishes one batch of pending entries.
func (w *Worker) DrainOnce(ctx context.Context) error {
	entries, err := w.store.FetchPending(ctx, w.batch)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if err := w.exporter.Publish(ctx, []byte(entry.Action), entry.Payload); err != nil {
			// Stop the batch; unpublished entries retry next tick in order.
			if markErr := w.store.MarkPublished(ctx, published); markErr != nil {
				return markErr
			}
			return err
		}
		published = append(published, entry.ID)
	}
	return w.store.MarkPublished(ctx, published)
}
