package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	WebhooksTotal      *prometheus.CounterVec
	SyncTenantsTotal   *prometheus.CounterVec
	SyncRecordsTotal   *prometheus.CounterVec
	SyncSweepDuration  prometheus.Histogram
	UpstreamRequests   *prometheus.CounterVec
	EventsTotal        *prometheus.CounterVec
	AnalyticsDurations prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WebhooksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "webhook",
			Name:      "notifications_total",
			Help:      "Webhook notifications by topic and outcome.",
		}, []string{"topic", "outcome"}), // outcome: processed, ignored, duplicate, error
		SyncTenantsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "sync",
			Name:      "tenants_total",
			Help:      "Tenant sync attempts by outcome.",
		}, []string{"outcome"}),
		SyncRecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Records ingested by the sweep by kind and outcome.",
		}, []string{"kind", "outcome"}),
		SyncSweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storepulse",
			Subsystem: "sync",
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of a full sweep across tenants.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Commerce platform requests by resource and outcome.",
		}, []string{"resource", "outcome"}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "events",
			Name:      "recorded_total",
			Help:      "Custom events by kind and outcome.",
		}, []string{"kind", "outcome"}),
		AnalyticsDurations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storepulse",
			Subsystem: "analytics",
			Name:      "compute_duration_seconds",
			Help:      "Time to load and aggregate one tenant's analytics.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) Webhook(topic, outcome string) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(topic, outcome).Inc()
}

func (m *Metrics) SyncTenant(outcome string) {
	if m == nil {
		return
	}
	m.SyncTenantsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SyncRecords(kind, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SyncRecordsTotal.WithLabelValues(kind, outcome).Add(float64(n))
}

func (m *Metrics) SweepDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.SyncSweepDuration.Observe(d.Seconds())
}

func (m *Metrics) Upstream(resource, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(resource, outcome).Inc()
}

func (m *Metrics) Event(kind, outcome string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) AnalyticsDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.AnalyticsDurations.Observe(d.Seconds())
}
