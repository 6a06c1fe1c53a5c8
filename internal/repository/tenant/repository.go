package tenant

import (
	"context"

	"storepulse/internal/domain"
)

// Repository stores tenants. Tenants are never hard-deleted.
type Repository interface {
	Create(ctx context.Context, t domain.Tenant) (*domain.Tenant, error)
	Get(ctx context.Context, id string) (*domain.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	ListActive(ctx context.Context) ([]domain.Tenant, error)
	UpdateSettings(ctx context.Context, id string, settings domain.TenantSettings) (*domain.Tenant, error)
	SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Tenant, error)
}
