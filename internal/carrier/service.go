package carrier

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"agentbook/internal/carriersync"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/platform/sentinel"
	"agentbook/pkg/requestcontext"
)

// Service manages the carrier list and resolves carriers for portal syncs.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the fields an agent can set on a carrier.
type CreateInput struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	PortalKey string `json:"portal_key"`
}

// Create adds a carrier. New carriers start active.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Carrier, error) {
	now := requestcontext.Now(ctx)
	c := &Carrier{
		ID:        id.CarrierID(uuid.New()),
		Name:      strings.TrimSpace(input.Name),
		ShortName: strings.TrimSpace(input.ShortName),
		PortalKey: strings.TrimSpace(input.PortalKey),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "carrier already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create carrier")
	}
	s.logger.InfoContext(ctx, "carrier created", "carrier_id", c.ID, "name", c.Name)
	return c, nil
}

// UpdateInput carries the mutable carrier fields.
type UpdateInput struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	PortalKey string `json:"portal_key"`
	IsActive  bool   `json:"is_active"`
}

// Update replaces the mutable fields of a carrier.
func (s *Service) Update(ctx context.Context, carrierID id.CarrierID, input UpdateInput) (*Carrier, error) {
	c, err := s.Get(ctx, carrierID)
	if err != nil {
		return nil, err
	}

	c.Name = strings.TrimSpace(input.Name)
	c.ShortName = strings.TrimSpace(input.ShortName)
	c.PortalKey = strings.TrimSpace(input.PortalKey)
	c.IsActive = input.IsActive
	c.UpdatedAt = requestcontext.Now(ctx)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "carrier not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update carrier")
	}
	return c, nil
}

// Get returns one carrier.
func (s *Service) Get(ctx context.Context, carrierID id.CarrierID) (*Carrier, error) {
	c, err := s.store.FindByID(ctx, carrierID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "carrier not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load carrier")
	}
	return c, nil
}

// List returns all carriers with their active enrollment counts.
func (s *Service) List(ctx context.Context) ([]WithCounts, error) {
	carriers, err := s.store.ListWithCounts(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list carriers")
	}
	if carriers == nil {
		carriers = []WithCounts{}
	}
	return carriers, nil
}

// FindPortalCarrier resolves a carrier for the sync engine.
func (s *Service) FindPortalCarrier(ctx context.Context, carrierID id.CarrierID) (*carriersync.PortalCarrier, error) {
	c, err := s.store.FindByID(ctx, carrierID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &carriersync.PortalCarrier{ID: c.ID, Name: c.Name, PortalKey: c.PortalKey}, nil
}

// ListPortalCarriers returns the carriers eligible for portal sync.
func (s *Service) ListPortalCarriers(ctx context.Context) ([]carriersync.PortalCarrier, error) {
	carriers, err := s.store.ListWithPortalKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]carriersync.PortalCarrier, 0, len(carriers))
	for _, c := range carriers {
		out = append(out, carriersync.PortalCarrier{ID: c.ID, Name: c.Name, PortalKey: c.PortalKey})
	}
	return out, nil
}
