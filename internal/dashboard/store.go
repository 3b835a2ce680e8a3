package dashboard

import (
	"context"
	"time"
)

// Store computes dashboard statistics.
type Store interface {
	// Stats aggregates the book of business. now anchors the "this month"
	// and trend windows.
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}
