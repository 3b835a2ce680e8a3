// Package portal holds the carrier portal adapters. Each adapter replays a
// session captured from an interactive portal login and returns the member
// list in the engine's shape. Wire formats here are reverse-engineered from
// portal traffic and may drift without notice.
package portal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"agentbook/internal/carriersync"
	"agentbook/pkg/platform/circuit"
)

// Adapter is implemented once per carrier portal.
type Adapter interface {
	// CarrierKey is the stable key carriers reference in their portal_key
	// column.
	CarrierKey() string

	// CarrierName is the display name used in results and logs.
	CarrierName() string

	// LoginURL is where the agent signs in to capture a session.
	LoginURL() string

	// FetchMembers pulls the full member list using the replayed session.
	FetchMembers(ctx context.Context, session carriersync.PortalSession) ([]carriersync.PortalMember, error)
}

// Registry routes fetches to adapters by portal key. Every adapter sits
// behind its own circuit breaker so a flapping portal stops being called
// after repeated failures.
type Registry struct {
	adapters map[string]Adapter
	breakers map[string]*circuit.Breaker
	logger   *slog.Logger
	tracer   trace.Tracer
}

// RegistryOption configures a Registry.
type RegistryOption func(r *Registry)

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

func WithTracer(tracer trace.Tracer) RegistryOption {
	return func(r *Registry) { r.tracer = tracer }
}

// NewRegistry builds a registry over the given adapters.
func NewRegistry(adapters []Adapter, opts ...RegistryOption) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter, len(adapters)),
		breakers: make(map[string]*circuit.Breaker, len(adapters)),
		logger:   slog.Default(),
	}
	for _, a := range adapters {
		r.adapters[a.CarrierKey()] = a
		r.breakers[a.CarrierKey()] = circuit.New("portal-" + a.CarrierKey())
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Keys lists the registered portal keys.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.adapters))
	for key := range r.adapters {
		keys = append(keys, key)
	}
	return keys
}

// Lookup returns the adapter for a portal key.
func (r *Registry) Lookup(portalKey string) (Adapter, bool) {
	a, ok := r.adapters[portalKey]
	return a, ok
}

// Fetch implements carriersync.PortalGateway.
func (r *Registry) Fetch(ctx context.Context, portalKey string, session carriersync.PortalSession) ([]carriersync.PortalMember, error) {
	adapter, ok := r.adapters[portalKey]
	if !ok {
		return nil, fmt.Errorf("no portal adapter registered for %q", portalKey)
	}

	breaker := r.breakers[portalKey]
	if breaker.IsOpen() {
		return nil, fmt.Errorf("portal %s: circuit open", portalKey)
	}

	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.Start(ctx, "portal.Fetch",
			trace.WithAttributes(attribute.String("portal.key", portalKey)))
		defer span.End()
	}

	members, err := adapter.FetchMembers(ctx, session)
	if err != nil {
		if _, change := breaker.RecordFailure(); change.Opened {
			r.logger.WarnContext(ctx, "portal circuit opened", "portal_key", portalKey)
		}
		return nil, fmt.Errorf("portal %s: %w", portalKey, err)
	}
	if _, change := breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "portal circuit closed", "portal_key", portalKey)
	}
	return members, nil
}

// defaultHTTPClient is shared by adapters that are not handed one.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
