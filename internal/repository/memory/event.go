package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storepulse/internal/domain"
	eventrepo "storepulse/internal/repository/event"
)

// Events is an in-memory append-only event log.
type Events struct {
	mu   sync.RWMutex
	data map[string][]domain.CustomEvent
	now  func() time.Time
}

var _ eventrepo.Repository = (*Events)(nil)

func NewEvents() *Events {
	return &Events{data: map[string][]domain.CustomEvent{}, now: utcNow}
}

func (r *Events) Append(_ context.Context, tenantID string, e domain.CustomEvent) (*domain.CustomEvent, error) {
	e.TenantID = tenantID
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[tenantID] = append(r.data[tenantID], e)
	return &e, nil
}

func (r *Events) List(_ context.Context, tenantID string, filter domain.EventFilter) ([]domain.CustomEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.CustomEvent{}
	events := r.data[tenantID]
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		result = append(result, e)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return limit(result, filter.Limit), nil
}
