package carrier

import (
	"context"

	id "agentbook/pkg/domain"
)

// Store persists carriers.
type Store interface {
	Create(ctx context.Context, c *Carrier) error
	Update(ctx context.Context, c *Carrier) error
	FindByID(ctx context.Context, carrierID id.CarrierID) (*Carrier, error)
	// ListWithCounts returns carriers with their active enrollment counts,
	// ordered by name.
	ListWithCounts(ctx context.Context) ([]WithCounts, error)
	// ListWithPortalKeys returns active carriers that have a portal adapter
	// configured.
	ListWithPortalKeys(ctx context.Context) ([]Carrier, error)
}
