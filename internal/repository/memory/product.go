package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storepulse/internal/domain"
	productrepo "storepulse/internal/repository/product"
)

// Products is an in-memory product repository keyed by tenant then id.
type Products struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.Product
	now  func() time.Time
}

var _ productrepo.Repository = (*Products)(nil)

func NewProducts() *Products {
	return &Products{data: map[string]map[string]domain.Product{}, now: utcNow}
}

func (r *Products) bucket(tenantID string) map[string]domain.Product {
	b, ok := r.data[tenantID]
	if !ok {
		b = map[string]domain.Product{}
		r.data[tenantID] = b
	}
	return b
}

func (r *Products) List(_ context.Context, tenantID string, filter domain.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Product{}
	for _, p := range r.data[tenantID] {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return limit(result, filter.Limit), nil
}

func (r *Products) Get(_ context.Context, tenantID, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *Products) Create(_ context.Context, tenantID string, p domain.Product) (*domain.Product, error) {
	p.TenantID = tenantID
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucket(tenantID)
	if _, exists := r.findID(p.ID); exists {
		return nil, domain.ErrAlreadyExists
	}
	if p.ExternalID != "" && externalTaken(b, p.ExternalID) {
		return nil, domain.ErrAlreadyExists
	}
	now := r.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	b[p.ID] = p
	return &p, nil
}

func (r *Products) Update(_ context.Context, tenantID, id string, patch domain.ProductPatch) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Apply(patch)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = r.now()
	r.data[tenantID][id] = p
	return &p, nil
}

func (r *Products) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[tenantID][id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data[tenantID], id)
	return nil
}

func (r *Products) UpsertByExternalID(_ context.Context, tenantID string, p domain.Product) (*domain.Product, error) {
	if p.ExternalID == "" {
		return nil, fmt.Errorf("%w: product external id is required for upsert", domain.ErrInvalid)
	}
	p.TenantID = tenantID
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucket(tenantID)
	now := r.now()
	for id, existing := range b {
		if existing.ExternalID != p.ExternalID {
			continue
		}
		p.ID = id
		p.Sales = existing.Sales
		p.Rating = existing.Rating
		p.CreatedAt = existing.CreatedAt
		p.UpdatedAt = now
		b[id] = p
		return &p, nil
	}
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	b[p.ID] = p
	return &p, nil
}

func (r *Products) findID(id string) (domain.Product, bool) {
	for _, b := range r.data {
		if p, ok := b[id]; ok {
			return p, true
		}
	}
	return domain.Product{}, false
}

func externalTaken(b map[string]domain.Product, externalID string) bool {
	for _, p := range b {
		if p.ExternalID == externalID {
			return true
		}
	}
	return false
}
