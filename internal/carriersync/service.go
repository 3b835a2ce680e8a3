package carriersync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"agentbook/internal/audit"
	"agentbook/internal/carriersync/metrics"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/platform/sentinel"
	"agentbook/pkg/requestcontext"
)

// syncLogLimit caps the run history returned to clients.
const syncLogLimit = 50

// syncAllConcurrency bounds how many carriers reconcile at once.
const syncAllConcurrency = 4

// PortalSession carries credentials captured from an interactive portal
// login, replayed by the adapters.
type PortalSession struct {
	Cookies     map[string]string `json:"cookies"`
	BearerToken string            `json:"bearer_token,omitempty"`
}

// PortalCarrier is the engine's view of a carrier with a portal adapter.
type PortalCarrier struct {
	ID        id.CarrierID
	Name      string
	PortalKey string
}

// CarrierDirectory resolves carriers that have portal adapters registered.
type CarrierDirectory interface {
	FindPortalCarrier(ctx context.Context, carrierID id.CarrierID) (*PortalCarrier, error)
	ListPortalCarriers(ctx context.Context) ([]PortalCarrier, error)
}

// PortalGateway fetches member lists from carrier portals by portal key.
type PortalGateway interface {
	Fetch(ctx context.Context, portalKey string, session PortalSession) ([]PortalMember, error)
}

// AuditPublisher records audit events. Implementations write to the outbox
// through the context so events commit with the run they describe.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SyncFailure reports one carrier whose sync could not complete during a
// sync-all run.
type SyncFailure struct {
	CarrierName string `json:"carrier_name"`
	Error       string `json:"error"`
}

// SyncAllOutcome aggregates a sync-all run. Failures are isolated per
// carrier; one broken portal never aborts the others.
type SyncAllOutcome struct {
	Results  []*SyncResult `json:"results"`
	Failures []SyncFailure `json:"failures"`
}

// Service runs portal reconciliation.
type Service struct {
	store    Store
	txr      TxRunner
	carriers CarrierDirectory
	portals  PortalGateway
	locks    *carrierLocks
	logger   *slog.Logger
	audit    AuditPublisher
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithPortalGateway wires the portal adapters; without it only RunSync and
// log queries are available.
func WithPortalGateway(carriers CarrierDirectory, portals PortalGateway) Option {
	return func(s *Service) {
		s.carriers = carriers
		s.portals = portals
	}
}

// New constructs a Service.
func New(store Store, txr TxRunner, opts ...Option) *Service {
	s := &Service{
		store:  store,
		txr:    txr,
		locks:  newCarrierLocks(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSync reconciles one carrier's local enrollments against the given
// portal member list. The whole run executes in one transaction: on any
// failure no enrollment changes and no log entry is written. Runs for the
// same carrier are serialized; the member list is consumed as-is and never
// persisted.
func (s *Service) RunSync(ctx context.Context, carrierID id.CarrierID, carrierName string, members []PortalMember) (*SyncResult, error) {
	if carrierID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "carrier id is required")
	}

	unlock := s.locks.Lock(carrierID)
	defer unlock()

	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "carriersync.RunSync",
			trace.WithAttributes(
				attribute.String("carrier.id", carrierID.String()),
				attribute.Int("portal.members", len(members)),
			))
		defer span.End()
	}

	start := time.Now()
	var result *SyncResult
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		var txErr error
		result, txErr = s.reconcile(ctx, carrierID, carrierName, members)
		return txErr
	})
	if err != nil {
		s.observeRun(carrierName, "failed", start)
		s.logger.ErrorContext(ctx, "sync run failed",
			"carrier_id", carrierID,
			"carrier_name", carrierName,
			"error", err,
		)
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "sync store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sync run failed")
	}

	s.observeRun(carrierName, "completed", start)
	if s.metrics != nil {
		s.metrics.AddDisenrollments(len(result.Disenrolled))
	}
	s.logger.InfoContext(ctx, "sync run completed",
		"carrier_id", carrierID,
		"carrier_name", carrierName,
		"portal_count", result.PortalCount,
		"local_count", result.LocalCount,
		"matched", result.Matched,
		"disenrolled", len(result.Disenrolled),
		"new_in_portal", len(result.NewInPortal),
	)
	return result, nil
}

// reconcile holds the transactional body of a run.
func (s *Service) reconcile(ctx context.Context, carrierID id.CarrierID, carrierName string, members []PortalMember) (*SyncResult, error) {
	locals, err := s.store.ListActiveEnrollments(ctx, carrierID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		CarrierName: carrierName,
		PortalCount: len(members),
		LocalCount:  len(locals),
		Disenrolled: []SyncDisenrollment{},
		NewInPortal: []PortalMember{},
	}

	seen := make(map[id.EnrollmentID]struct{}, len(locals))
	for _, member := range members {
		match := Match(locals, member)
		if match.Ambiguous {
			if s.metrics != nil {
				s.metrics.IncrementAmbiguous()
			}
			s.logger.WarnContext(ctx, "ambiguous portal member",
				"carrier_id", carrierID,
				"first_name", member.FirstName,
				"last_name", member.LastName,
			)
		}
		if match.Enrollment == nil {
			result.NewInPortal = append(result.NewInPortal, member)
			continue
		}
		result.Matched++
		seen[match.Enrollment.EnrollmentID] = struct{}{}
	}

	now := requestcontext.Now(ctx)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, local := range locals {
		if _, ok := seen[local.EnrollmentID]; ok {
			continue
		}
		if err := s.store.Disenroll(ctx, local.EnrollmentID, DisenrollmentReason, today, now); err != nil {
			return nil, fmt.Errorf("disenroll %s: %w", local.EnrollmentID, err)
		}
		result.Disenrolled = append(result.Disenrolled, SyncDisenrollment{
			EnrollmentID: local.EnrollmentID,
			ClientID:     local.ClientID,
			ClientName:   local.ClientFirstName + " " + local.ClientLastName,
			PlanName:     local.PlanName,
		})
	}

	entry := SyncLogEntry{
		ID:          id.SyncRunID(uuid.New()),
		CarrierID:   carrierID,
		SyncedAt:    now,
		PortalCount: result.PortalCount,
		Matched:     result.Matched,
		Disenrolled: len(result.Disenrolled),
		NewFound:    len(result.NewInPortal),
		Status:      SyncLogStatusCompleted,
	}
	if err := s.store.AppendLog(ctx, entry); err != nil {
		return nil, err
	}

	if s.audit != nil {
		event := audit.Event{
			Timestamp: now,
			Action:    audit.ActionSyncCompleted,
			CarrierID: carrierID.String(),
			SyncRunID: entry.ID.String(),
			Detail: fmt.Sprintf("portal=%d matched=%d disenrolled=%d new=%d",
				entry.PortalCount, entry.Matched, entry.Disenrolled, entry.NewFound),
		}
		if agentID := requestcontext.AgentID(ctx); !agentID.IsNil() {
			event.AgentID = agentID.String()
		}
		if err := s.audit.Emit(ctx, event); err != nil {
			return nil, fmt.Errorf("emit audit event: %w", err)
		}
	}
	return result, nil
}

// SyncCarrier fetches the member list for one carrier through its portal
// adapter and reconciles it.
func (s *Service) SyncCarrier(ctx context.Context, carrierID id.CarrierID, session PortalSession) (*SyncResult, error) {
	if s.carriers == nil || s.portals == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "portal gateway not configured")
	}

	carrier, err := s.carriers.FindPortalCarrier(ctx, carrierID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "carrier not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load carrier")
	}
	if carrier.PortalKey == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "carrier has no portal adapter")
	}

	members, err := s.fetchMembers(ctx, carrier.PortalKey, session)
	if err != nil {
		return nil, err
	}
	return s.RunSync(ctx, carrier.ID, carrier.Name, members)
}

// SyncAll reconciles every carrier with a portal adapter for which a session
// was supplied, fanning out with bounded concurrency. Per-carrier locks keep
// overlapping manual runs safe.
func (s *Service) SyncAll(ctx context.Context, sessions map[string]PortalSession) (*SyncAllOutcome, error) {
	if s.carriers == nil || s.portals == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "portal gateway not configured")
	}

	carriers, err := s.carriers.ListPortalCarriers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list portal carriers")
	}

	outcome := &SyncAllOutcome{Results: []*SyncResult{}, Failures: []SyncFailure{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncAllConcurrency)
	for _, carrier := range carriers {
		session, ok := sessions[carrier.PortalKey]
		if !ok {
			outcome.Failures = append(outcome.Failures, SyncFailure{
				CarrierName: carrier.Name,
				Error:       "no portal session provided",
			})
			continue
		}
		g.Go(func() error {
			result, runErr := s.syncOne(gctx, carrier, session)
			mu.Lock()
			defer mu.Unlock()
			if runErr != nil {
				outcome.Failures = append(outcome.Failures, SyncFailure{
					CarrierName: carrier.Name,
					Error:       runErr.Error(),
				})
				return nil
			}
			outcome.Results = append(outcome.Results, result)
			return nil
		})
	}
	_ = g.Wait()
	return outcome, nil
}

func (s *Service) syncOne(ctx context.Context, carrier PortalCarrier, session PortalSession) (*SyncResult, error) {
	members, err := s.fetchMembers(ctx, carrier.PortalKey, session)
	if err != nil {
		return nil, err
	}
	return s.RunSync(ctx, carrier.ID, carrier.Name, members)
}

func (s *Service) fetchMembers(ctx context.Context, portalKey string, session PortalSession) ([]PortalMember, error) {
	members, err := s.portals.Fetch(ctx, portalKey, session)
	if err != nil {
		s.logger.WarnContext(ctx, "portal fetch failed",
			"portal_key", portalKey,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "portal fetch failed")
	}
	if s.metrics != nil {
		s.metrics.ObservePortalFetch(len(members))
	}
	return members, nil
}

// GetSyncLogs returns run history newest first, optionally filtered to one
// carrier, capped at the log limit.
func (s *Service) GetSyncLogs(ctx context.Context, carrierID *id.CarrierID) ([]SyncLogEntry, error) {
	logs, err := s.store.ListLogs(ctx, carrierID, syncLogLimit)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "sync store unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sync logs")
	}
	if logs == nil {
		logs = []SyncLogEntry{}
	}
	return logs, nil
}

func (s *Service) observeRun(carrierName, outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRun(carrierName, outcome, start)
	}
}
