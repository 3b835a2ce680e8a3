package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"agentbook/internal/platform/config"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/requestcontext"
)

const cacheKey = "dashboard:stats"

// Service serves dashboard statistics, caching them when a cache is wired.
type Service struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCache enables caching of computed stats. A nil cache leaves every read
// going to the store.
func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, ttl: config.DashboardCacheTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the dashboard payload, from cache when fresh. Cache failures
// degrade to a direct computation; they never fail the request.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.logger.WarnContext(ctx, "dashboard cache read failed", "error", err)
		} else if ok {
			var stats Stats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
			s.logger.WarnContext(ctx, "dashboard cache entry corrupt, recomputing")
		}
	}

	stats, err := s.store.Stats(ctx, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute dashboard stats")
	}

	if s.cache != nil {
		payload, err := json.Marshal(stats)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl); err != nil {
				s.logger.WarnContext(ctx, "dashboard cache write failed", "error", err)
			}
		}
	}
	return stats, nil
}
