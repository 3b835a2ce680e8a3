package enrollment

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

// ClientDirectory answers whether a client can take new enrollments.
type ClientDirectory interface {
	// ClientIsActive returns sentinel.ErrNotFound for unknown clients.
	ClientIsActive(ctx context.Context, clientID id.ClientID) (bool, error)
}

// AuditPublisher records enrollment mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages enrollments and their status lifecycle.
type Service struct {
	store   Store
	clients ClientDirectory
	logger  *slog.Logger
	audit   AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// New constructs a Service.
func New(store Store, clients ClientDirectory, opts ...Option) *Service {
	s := &Service{store: store, clients: clients, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the fields set when writing a new enrollment. Dates are
// ISO strings. An empty status defaults to PENDING.
type CreateInput struct {
	ClientID         id.ClientID  `json:"client_id"`
	CarrierID        id.CarrierID `json:"carrier_id"`
	PlanName         string       `json:"plan_name"`
	PlanType         string       `json:"plan_type"`
	ContractNumber   string       `json:"contract_number"`
	PBPNumber        string       `json:"pbp_number"`
	EffectiveDate    *string      `json:"effective_date"`
	ApplicationDate  *string      `json:"application_date"`
	Status           string       `json:"status"`
	EnrollmentPeriod string       `json:"enrollment_period"`
	PremiumCents     int          `json:"premium_cents"`
}

// Create writes a new enrollment. The client must exist and be active.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Enrollment, error) {
	active, err := s.clients.ClientIsActive(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check client")
	}
	if !active {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "client is inactive")
	}

	status := strings.ToUpper(strings.TrimSpace(input.Status))
	if status == "" {
		status = StatusPending
	}
	if IsTerminal(status) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "new enrollments cannot start in a terminal status")
	}

	effective, err := parseDate(input.EffectiveDate)
	if err != nil {
		return nil, err
	}
	application, err := parseDate(input.ApplicationDate)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	e := &Enrollment{
		ID:               id.EnrollmentID(uuid.New()),
		ClientID:         input.ClientID,
		CarrierID:        input.CarrierID,
		PlanName:         strings.TrimSpace(input.PlanName),
		PlanType:         strings.ToUpper(strings.TrimSpace(input.PlanType)),
		ContractNumber:   strings.TrimSpace(input.ContractNumber),
		PBPNumber:        strings.TrimSpace(input.PBPNumber),
		EffectiveDate:    effective,
		ApplicationDate:  application,
		Status:           status,
		EnrollmentPeriod: strings.ToUpper(strings.TrimSpace(input.EnrollmentPeriod)),
		PremiumCents:     input.PremiumCents,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create enrollment")
	}
	s.logger.InfoContext(ctx, "enrollment created",
		"enrollment_id", e.ID, "client_id", e.ClientID, "carrier_id", e.CarrierID)
	s.logAudit(ctx, audit.ActionEnrollmentCreated, e)
	return e, nil
}

// UpdateInput carries the mutable enrollment fields. A status change is
// validated against the transition table; terminal enrollments reject every
// change except Reactivate.
type UpdateInput struct {
	PlanName            string  `json:"plan_name"`
	PlanType            string  `json:"plan_type"`
	ContractNumber      string  `json:"contract_number"`
	PBPNumber           string  `json:"pbp_number"`
	EffectiveDate       *string `json:"effective_date"`
	TerminationDate     *string `json:"termination_date"`
	ApplicationDate     *string `json:"application_date"`
	Status              string  `json:"status"`
	EnrollmentPeriod    string  `json:"enrollment_period"`
	DisenrollmentReason *string `json:"disenrollment_reason"`
	PremiumCents        int     `json:"premium_cents"`
}

// Update replaces the mutable fields of an enrollment.
func (s *Service) Update(ctx context.Context, enrollmentID id.EnrollmentID, input UpdateInput) (*Enrollment, error) {
	e, err := s.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	next := strings.ToUpper(strings.TrimSpace(input.Status))
	if next == "" {
		next = e.Status
	}
	if next != e.Status {
		if _, ok := transitions[next]; !ok {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown enrollment status")
		}
		if !CanTransition(e.Status, next) {
			return nil, dErrors.New(dErrors.CodeConflict, "status transition not allowed")
		}
	} else if IsTerminal(e.Status) {
		return nil, dErrors.New(dErrors.CodeConflict, "enrollment is in a terminal status")
	}

	effective, err := parseDate(input.EffectiveDate)
	if err != nil {
		return nil, err
	}
	termination, err := parseDate(input.TerminationDate)
	if err != nil {
		return nil, err
	}
	application, err := parseDate(input.ApplicationDate)
	if err != nil {
		return nil, err
	}

	e.PlanName = strings.TrimSpace(input.PlanName)
	e.PlanType = strings.ToUpper(strings.TrimSpace(input.PlanType))
	e.ContractNumber = strings.TrimSpace(input.ContractNumber)
	e.PBPNumber = strings.TrimSpace(input.PBPNumber)
	e.EffectiveDate = effective
	e.TerminationDate = termination
	e.ApplicationDate = application
	e.Status = next
	e.EnrollmentPeriod = strings.ToUpper(strings.TrimSpace(input.EnrollmentPeriod))
	e.DisenrollmentReason = input.DisenrollmentReason
	e.PremiumCents = input.PremiumCents
	e.UpdatedAt = requestcontext.Now(ctx)

	if e.Status == StatusDisenrolled && e.TerminationDate == nil {
		now := requestcontext.Now(ctx)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		e.TerminationDate = &today
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "enrollment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update enrollment")
	}
	s.logAudit(ctx, audit.ActionEnrollmentUpdated, e)
	return e, nil
}

// Reactivate pulls an enrollment out of a terminal status back to ACTIVE,
// clearing its termination bookkeeping.
func (s *Service) Reactivate(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error) {
	e, err := s.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !IsTerminal(e.Status) {
		return nil, dErrors.New(dErrors.CodeConflict, "only terminal enrollments can be reactivated")
	}

	e.Status = StatusActive
	e.TerminationDate = nil
	e.DisenrollmentReason = nil
	e.IsActive = true
	e.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reactivate enrollment")
	}
	s.logger.InfoContext(ctx, "enrollment reactivated", "enrollment_id", e.ID)
	s.logAudit(ctx, audit.ActionEnrollmentUpdated, e)
	return e, nil
}

// Get returns one enrollment.
func (s *Service) Get(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error) {
	e, err := s.store.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "enrollment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load enrollment")
	}
	return e, nil
}

// List returns enrollments joined to client and carrier names, optionally
// narrowed to one client.
func (s *Service) List(ctx context.Context, clientID *id.ClientID) ([]WithNames, error) {
	enrollments, err := s.store.List(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []WithNames{}
	}
	return enrollments, nil
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "dates must be YYYY-MM-DD")
	}
	return &t, nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, e *Enrollment) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Action:    action,
		ClientID:  e.ClientID.String(),
		CarrierID: e.CarrierID.String(),
		Detail:    e.Status,
	}
	if agentID := requestcontext.AgentID(ctx); !agentID.IsNil() {
		event.AgentID = agentID.String()
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
