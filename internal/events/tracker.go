package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storepulse/internal/domain"
	"storepulse/internal/metrics"
)

// Appender is the tenant-bound event log, satisfied by *store.Tenant.
type Appender interface {
	ID() string
	AppendEvent(ctx context.Context, e domain.CustomEvent) (*domain.CustomEvent, error)
}

// Publisher fans recorded events out to a secondary sink.
type Publisher interface {
	Publish(ctx context.Context, e domain.CustomEvent) error
}

// Tracker records behavioral events for a tenant.
type Tracker struct {
	logger    *zap.Logger
	metrics   *metrics.Metrics
	publisher Publisher
	now       func() time.Time
}

// NewTracker builds a Tracker. publisher may be nil.
func NewTracker(logger *zap.Logger, m *metrics.Metrics, publisher Publisher) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		logger:    logger,
		metrics:   m,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record validates and appends the event, returning any error.
func (t *Tracker) Record(ctx context.Context, tenant Appender, sessionID, userID string, payload domain.EventPayload) (*domain.CustomEvent, error) {
	e := domain.CustomEvent{
		SessionID: sessionID,
		UserID:    userID,
		Payload:   payload,
		Timestamp: t.now(),
	}
	if payload != nil {
		e.Kind = payload.Kind()
	}
	if err := e.Validate(); err != nil {
		t.metrics.Event(string(e.Kind), "invalid")
		return nil, err
	}
	saved, err := tenant.AppendEvent(ctx, e)
	if err != nil {
		t.metrics.Event(string(e.Kind), "error")
		return nil, err
	}
	t.metrics.Event(string(e.Kind), "recorded")

	if t.publisher != nil {
		if err := t.publisher.Publish(ctx, *saved); err != nil {
			t.logger.Warn("events: publish failed", zap.String("tenant_id", tenant.ID()), zap.String("kind", string(saved.Kind)), zap.Error(err))
		}
	}
	return saved, nil
}

// Track records the event and swallows failures so instrumentation never
// fails the operation being instrumented.
func (t *Tracker) Track(ctx context.Context, tenant Appender, sessionID, userID string, payload domain.EventPayload) {
	if _, err := t.Record(ctx, tenant, sessionID, userID, payload); err != nil {
		kind := ""
		if payload != nil {
			kind = string(payload.Kind())
		}
		t.logger.Warn("events: track failed", zap.String("tenant_id", tenant.ID()), zap.String("kind", kind), zap.Error(err))
	}
}
