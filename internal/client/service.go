package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentbook/internal/audit"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/platform/sentinel"
	"agentbook/pkg/requestcontext"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AuditPublisher records client mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages the book of clients.
type Service struct {
	store  Store
	logger *slog.Logger
	audit  AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries the writable client fields. DateOfBirth is an ISO date.
type Input struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	MBI          string  `json:"mbi"`
	DateOfBirth  *string `json:"date_of_birth"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email"`
	Street       string  `json:"street"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zip          string  `json:"zip"`
	DualEligible bool    `json:"dual_eligible"`
	Notes        string  `json:"notes"`
}

func (in Input) apply(c *Client) error {
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.MBI = NormalizeMBI(in.MBI)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Street = strings.TrimSpace(in.Street)
	c.City = strings.TrimSpace(in.City)
	c.State = strings.ToUpper(strings.TrimSpace(in.State))
	c.Zip = strings.TrimSpace(in.Zip)
	c.DualEligible = in.DualEligible
	c.Notes = in.Notes

	c.DateOfBirth = nil
	if in.DateOfBirth != nil && *in.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", *in.DateOfBirth)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "date_of_birth must be YYYY-MM-DD")
		}
		c.DateOfBirth = &dob
	}
	return c.Validate()
}

// Create adds a client. New clients start active.
func (s *Service) Create(ctx context.Context, input Input) (*Client, error) {
	now := requestcontext.Now(ctx)
	c := &Client{
		ID:        id.ClientID(uuid.New()),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := input.apply(c); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create client")
	}
	s.logger.InfoContext(ctx, "client created", "client_id", c.ID)
	s.logAudit(ctx, audit.ActionClientCreated, c.ID)
	return c, nil
}

// Update replaces the writable fields of a client.
func (s *Service) Update(ctx context.Context, clientID id.ClientID, input Input) (*Client, error) {
	c, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := input.apply(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update client")
	}
	s.logAudit(ctx, audit.ActionClientUpdated, c.ID)
	return c, nil
}

// Get returns one client, active or not.
func (s *Service) Get(ctx context.Context, clientID id.ClientID) (*Client, error) {
	c, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	return c, nil
}

// List returns a filtered page of clients.
func (s *Service) List(ctx context.Context, filter Filter) (*Page, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	clients, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	if clients == nil {
		clients = []Client{}
	}
	return &Page{Clients: clients, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Deactivate soft-deletes a client. Their history stays queryable.
func (s *Service) Deactivate(ctx context.Context, clientID id.ClientID) error {
	err := s.store.Deactivate(ctx, clientID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate client")
	}
	s.logger.InfoContext(ctx, "client deactivated", "client_id", clientID)
	s.logAudit(ctx, audit.ActionClientDeactivated, clientID)
	return nil
}

// ClientIsActive reports whether the client exists and is active. It returns
// sentinel.ErrNotFound for unknown clients so callers can map the error
// themselves.
func (s *Service) ClientIsActive(ctx context.Context, clientID id.ClientID) (bool, error) {
	c, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		return false, err
	}
	return c.IsActive, nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, clientID id.ClientID) {
	if s.audit == nil {
		return
	}
	event := audit.Event{Action: action, ClientID: clientID.String()}
	if agentID := requestcontext.AgentID(ctx); !agentID.IsNil() {
		event.AgentID = agentID.String()
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
