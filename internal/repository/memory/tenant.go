// Package memory holds mutex-guarded in-process repositories. They back
// STORE_DRIVER=memory and the unit tests of every layer above storage.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storepulse/internal/domain"
	tenantrepo "storepulse/internal/repository/tenant"
)

// Tenants is an in-memory tenant repository.
type Tenants struct {
	mu   sync.RWMutex
	byID map[string]domain.Tenant
}

var _ tenantrepo.Repository = (*Tenants)(nil)

func NewTenants() *Tenants {
	return &Tenants{byID: map[string]domain.Tenant{}}
}

func (r *Tenants) Create(_ context.Context, t domain.Tenant) (*domain.Tenant, error) {
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Domain) == "" {
		return nil, fmt.Errorf("%w: tenant name and domain are required", domain.ErrInvalid)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t.Domain = domain.NormalizeDomain(t.Domain)
	for _, existing := range r.byID {
		if existing.Domain == t.Domain {
			return nil, domain.ErrAlreadyExists
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, ok := r.byID[t.ID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	if t.Status == "" {
		t.Status = domain.StatusActive
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	t.Settings.Features = append([]string(nil), t.Settings.Features...)
	r.byID[t.ID] = t
	return &t, nil
}

func (r *Tenants) Get(_ context.Context, id string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *Tenants) GetByDomain(_ context.Context, storeDomain string) (*domain.Tenant, error) {
	d := domain.NormalizeDomain(storeDomain)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.byID {
		if t.Domain == d {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Tenants) List(_ context.Context) ([]domain.Tenant, error) {
	return r.list(func(domain.Tenant) bool { return true }), nil
}

func (r *Tenants) ListActive(_ context.Context) ([]domain.Tenant, error) {
	return r.list(func(t domain.Tenant) bool { return t.Status == domain.StatusActive }), nil
}

func (r *Tenants) list(keep func(domain.Tenant) bool) []domain.Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Tenant{}
	for _, t := range r.byID {
		if keep(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *Tenants) UpdateSettings(_ context.Context, id string, settings domain.TenantSettings) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	settings.Features = append([]string(nil), settings.Features...)
	t.Settings = settings
	r.byID[id] = t
	return &t, nil
}

func (r *Tenants) SetStatus(_ context.Context, id string, status domain.Status) (*domain.Tenant, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown tenant status %q", domain.ErrInvalid, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.Status = status
	r.byID[id] = t
	return &t, nil
}
