package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storepulse/internal/domain"
	customerrepo "storepulse/internal/repository/customer"
)

// Customers is an in-memory customer repository.
type Customers struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.Customer
	now  func() time.Time
}

var _ customerrepo.Repository = (*Customers)(nil)

func NewCustomers() *Customers {
	return &Customers{data: map[string]map[string]domain.Customer{}, now: utcNow}
}

func (r *Customers) bucket(tenantID string) map[string]domain.Customer {
	b, ok := r.data[tenantID]
	if !ok {
		b = map[string]domain.Customer{}
		r.data[tenantID] = b
	}
	return b
}

func (r *Customers) List(_ context.Context, tenantID string, filter domain.CustomerFilter) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Customer{}
	for _, c := range r.data[tenantID] {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		result = append(result, c)
	}
	if filter.Sort == domain.CustomerSortSpent {
		sort.Slice(result, func(i, j int) bool {
			a, b := result[i], result[j]
			if c := a.TotalSpent.Cmp(b.TotalSpent); c != 0 {
				return c > 0
			}
			if a.TotalOrders != b.TotalOrders {
				return a.TotalOrders > b.TotalOrders
			}
			return a.ID < b.ID
		})
	} else {
		sort.Slice(result, func(i, j int) bool {
			return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
		})
	}
	return limit(result, filter.Limit), nil
}

func (r *Customers) Get(_ context.Context, tenantID, id string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *Customers) Create(_ context.Context, tenantID string, c domain.Customer) (*domain.Customer, error) {
	r.prepare(&c, tenantID)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.data {
		if _, ok := b[c.ID]; ok {
			return nil, domain.ErrAlreadyExists
		}
	}
	b := r.bucket(tenantID)
	if c.ExternalID != "" {
		for _, existing := range b {
			if existing.ExternalID == c.ExternalID {
				return nil, domain.ErrAlreadyExists
			}
		}
	}
	now := r.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	b[c.ID] = c
	return &c, nil
}

func (r *Customers) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[tenantID][id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data[tenantID], id)
	return nil
}

func (r *Customers) UpsertByExternalID(_ context.Context, tenantID string, c domain.Customer) (*domain.Customer, error) {
	if c.ExternalID == "" {
		return nil, fmt.Errorf("%w: customer external id is required for upsert", domain.ErrInvalid)
	}
	r.prepare(&c, tenantID)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucket(tenantID)
	now := r.now()
	for id, existing := range b {
		if existing.ExternalID != c.ExternalID {
			continue
		}
		c.ID = id
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = now
		b[id] = c
		return &c, nil
	}
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	b[c.ID] = c
	return &c, nil
}

func (r *Customers) RecordCompletedOrder(_ context.Context, tenantID, id string, amount decimal.Decimal) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.TotalOrders++
	c.TotalSpent = c.TotalSpent.Add(amount)
	c.UpdatedAt = r.now()
	r.data[tenantID][id] = c
	return &c, nil
}

func (r *Customers) prepare(c *domain.Customer, tenantID string) {
	c.TenantID = tenantID
	if c.Status == "" {
		c.Status = domain.StatusActive
	}
	if c.JoinDate.IsZero() {
		c.JoinDate = r.now()
	}
}
