package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	published [][]byte
	failAfter int
	err       error
}

func (e *fakeExporter) Publish(ctx context.Context, key, value []byte) error {
	if e.err != nil && len(e.published) >= e.failAfter {
		return e.err
	}
	e.published = append(e.published, value)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDrainOncePublishesAndMarks(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Event{
			Action:    ActionSyncCompleted,
			Timestamp: time.Now(),
		}))
	}

	exporter := &fakeExporter{}
	worker := NewWorker(store, exporter, discardLogger())
	require.NoError(t, worker.DrainOnce(ctx))
	assert.Len(t, exporter.published, 3)

	// Everything is marked; the next drain publishes nothing.
	require.NoError(t, worker.DrainOnce(ctx))
	assert.Len(t, exporter.published, 3)
}

func TestDrainOnceStopsAtFirstFailure(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Event{Action: ActionSyncCompleted}))
	}

	exporter := &fakeExporter{failAfter: 1, err: errors.New("broker down")}
	worker := NewWorker(store, exporter, discardLogger())
	err := worker.DrainOnce(ctx)
	require.Error(t, err)
	assert.Len(t, exporter.published, 1)

	// The published entry is marked; the two failures stay pending.
	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestDrainOnceHonorsBatchSize(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, Event{Action: ActionSyncCompleted}))
	}

	exporter := &fakeExporter{}
	worker := NewWorker(store, exporter, discardLogger(), WithBatchSize(2))
	require.NoError(t, worker.DrainOnce(ctx))
	assert.Len(t, exporter.published, 2)
}

func TestPublisherFailClosed(t *testing.T) {
	publisher := NewPublisher(&failingAuditStore{}, discardLogger())
	err := publisher.Emit(context.Background(), Event{Action: ActionSyncCompleted})
	require.Error(t, err)

	err = publisher.Emit(context.Background(), Event{})
	require.Error(t, err, "events without an action are rejected")
}

func TestPublisherStampsTimestamp(t *testing.T) {
	store := NewMemoryStore()
	publisher := NewPublisher(store, discardLogger())
	require.NoError(t, publisher.Emit(context.Background(), Event{Action: ActionLogin}))

	events := store.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}

type failingAuditStore struct{}

func (f *failingAuditStore) Append(ctx context.Context, event Event) error {
	return errors.New("disk full")
}

func (f *failingAuditStore) FetchPending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	return nil, nil
}

func (f *failingAuditStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	return nil
}
