package analytics

import (
	"context"
	"time"

	"storepulse/internal/analytics"
	"storepulse/internal/metrics"
	"storepulse/internal/store"
)

// Service loads a tenant snapshot and aggregates it on every call.
type Service struct {
	store   *store.Store
	opts    analytics.Options
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(s *store.Store, opts analytics.Options, m *metrics.Metrics) *Service {
	return &Service{store: s, opts: opts, metrics: m, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Get(ctx context.Context, tenantID string) (*analytics.Analytics, error) {
	started := time.Now()
	snap, err := s.store.Tenant(tenantID).Snapshot(ctx, s.now())
	if err != nil {
		return nil, err
	}
	out := analytics.Compute(analytics.Snapshot{
		Products:  snap.Products,
		Customers: snap.Customers,
		Orders:    snap.Orders,
		Now:       snap.TakenAt,
		Location:  snap.Tenant.Location(),
	}, s.opts)
	s.metrics.AnalyticsDuration(time.Since(started))
	return &out, nil
}
