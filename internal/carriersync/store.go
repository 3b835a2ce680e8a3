package carriersync

import (
	"context"
	"time"

	id "agentbook/pkg/domain"
)

// Store is the persistence surface the engine needs. Implementations return
// sentinel.ErrNotFound for missing rows and sentinel.ErrUnavailable when the
// backing store cannot be reached; everything else is wrapped verbatim.
type Store interface {
	// ListActiveEnrollments loads the reconciliation read model for one
	// carrier: enrollments in ACTIVE or PENDING with the active flag set,
	// joined to their owning client, clients that are themselves active.
	ListActiveEnrollments(ctx context.Context, carrierID id.CarrierID) ([]LocalEnrollment, error)

	// Disenroll transitions one enrollment to DISENROLLED, stamping the
	// reason, a date-precision termination date and updated_at.
	Disenroll(ctx context.Context, enrollmentID id.EnrollmentID, reason string, terminationDate, updatedAt time.Time) error

	// AppendLog records one completed run. Entries are append-only.
	AppendLog(ctx context.Context, entry SyncLogEntry) error

	// ListLogs returns run history newest first, optionally filtered to one
	// carrier, capped at limit rows. Carrier names are joined in where the
	// carrier still exists.
	ListLogs(ctx context.Context, carrierID *id.CarrierID, limit int) ([]SyncLogEntry, error)
}

// TxRunner runs fn inside one transaction. The Postgres implementation opens
// a database transaction and threads it through the context so every Store
// call inside fn shares it; the in-memory implementation is a coarse lock.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
