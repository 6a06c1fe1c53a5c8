package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storepulse/internal/domain"
	orderrepo "storepulse/internal/repository/order"
)

// Orders is an in-memory order repository.
type Orders struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.Order
	now  func() time.Time
}

var _ orderrepo.Repository = (*Orders)(nil)

func NewOrders() *Orders {
	return &Orders{data: map[string]map[string]domain.Order{}, now: utcNow}
}

func (r *Orders) bucket(tenantID string) map[string]domain.Order {
	b, ok := r.data[tenantID]
	if !ok {
		b = map[string]domain.Order{}
		r.data[tenantID] = b
	}
	return b
}

func (r *Orders) List(_ context.Context, tenantID string, filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Order{}
	for _, o := range r.data[tenantID] {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if !filter.From.IsZero() && o.OrderDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !o.OrderDate.Before(filter.To) {
			continue
		}
		result = append(result, copyOrder(o))
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].OrderDate, result[j].OrderDate, result[i].ID, result[j].ID)
	})
	return limit(result, filter.Limit), nil
}

func (r *Orders) Get(_ context.Context, tenantID, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.data[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *Orders) Create(_ context.Context, tenantID string, o domain.Order) (*domain.Order, error) {
	o.TenantID = tenantID
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.data {
		if _, ok := b[o.ID]; ok {
			return nil, domain.ErrAlreadyExists
		}
	}
	b := r.bucket(tenantID)
	if o.ExternalID != "" {
		for _, existing := range b {
			if existing.ExternalID == o.ExternalID {
				return nil, domain.ErrAlreadyExists
			}
		}
	}
	now := r.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o = copyOrder(o)
	b[o.ID] = o
	out := copyOrder(o)
	return &out, nil
}

func (r *Orders) Update(_ context.Context, tenantID, id string, patch domain.OrderPatch) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o.Apply(patch)
	if !o.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalid, o.Status)
	}
	o.UpdatedAt = r.now()
	r.data[tenantID][id] = o
	out := copyOrder(o)
	return &out, nil
}

func (r *Orders) Transition(_ context.Context, tenantID, id string, next domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[tenantID][id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	from := o.Status
	if from != next {
		if !from.CanTransitionTo(next) {
			return nil, from, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, next)
		}
		o.Status = next
		o.UpdatedAt = r.now()
		r.data[tenantID][id] = o
	}
	out := copyOrder(o)
	return &out, from, nil
}

func (r *Orders) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[tenantID][id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data[tenantID], id)
	return nil
}

func (r *Orders) UpsertByExternalID(_ context.Context, tenantID string, o domain.Order) (*domain.Order, error) {
	if o.ExternalID == "" {
		return nil, fmt.Errorf("%w: order external id is required for upsert", domain.ErrInvalid)
	}
	o.TenantID = tenantID
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucket(tenantID)
	now := r.now()
	o = copyOrder(o)
	for id, existing := range b {
		if existing.ExternalID != o.ExternalID {
			continue
		}
		o.ID = id
		o.Status = domain.MergeOrderStatus(existing.Status, o.Status)
		o.CreatedAt = existing.CreatedAt
		o.UpdatedAt = now
		b[id] = o
		out := copyOrder(o)
		return &out, nil
	}
	o.ID = uuid.NewString()
	o.CreatedAt = now
	o.UpdatedAt = now
	b[o.ID] = o
	out := copyOrder(o)
	return &out, nil
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}
