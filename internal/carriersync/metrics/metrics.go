package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the carrier sync module.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	Disenrollments  prometheus.Counter
	AmbiguousTotal  prometheus.Counter
	RunDuration     prometheus.Histogram
	PortalFetchSize prometheus.Histogram
}

// New creates a Metrics instance with all sync metrics registered.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentbook_sync_runs_total",
			Help: "Sync runs by carrier and outcome",
		}, []string{"carrier", "outcome"}),
		Disenrollments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agentbook_sync_disenrollments_total",
			Help: "Enrollments terminated because the portal no longer lists them",
		}),
		AmbiguousTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agentbook_sync_ambiguous_matches_total",
			Help: "Portal members that tied on name against several locals",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentbook_sync_run_duration_seconds",
			Help:    "Duration of one reconciliation run, portal fetch excluded",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PortalFetchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentbook_sync_portal_members",
			Help:    "Member count returned by one portal fetch",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		}),
	}
}

// ObserveRun records one run's outcome and duration.
func (m *Metrics) ObserveRun(carrier, outcome string, start time.Time) {
	m.RunsTotal.WithLabelValues(carrier, outcome).Inc()
	m.RunDuration.Observe(time.Since(start).Seconds())
}

// AddDisenrollments records enrollments terminated in one run.
func (m *Metrics) AddDisenrollments(n int) {
	if n > 0 {
		m.Disenrollments.Add(float64(n))
	}
}

// IncrementAmbiguous records a name-tier tie.
func (m *Metrics) IncrementAmbiguous() {
	m.AmbiguousTotal.Inc()
}

// ObservePortalFetch records the size of a portal member list.
func (m *Metrics) ObservePortalFetch(members int) {
	m.PortalFetchSize.Observe(float64(members))
}
