package tenant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storepulse/internal/domain"
)

// Lookup finds a tenant by store domain.
type Lookup interface {
	GetByDomain(ctx context.Context, domain string) (*domain.Tenant, error)
}

// Resolver maps an external store domain to an active tenant.
type Resolver struct {
	lookup Lookup
	logger *zap.Logger
}

func NewResolver(lookup Lookup, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// Resolve returns the tenant registered for externalDomain. Unknown and
// inactive tenants both yield domain.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, externalDomain string) (*domain.Tenant, error) {
	d := domain.NormalizeDomain(externalDomain)
	if d == "" {
		return nil, fmt.Errorf("resolve tenant: empty domain: %w", domain.ErrNotFound)
	}
	t, err := r.lookup.GetByDomain(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %s: %w", d, err)
	}
	if t.Status != domain.StatusActive {
		r.logger.Warn("tenant resolver: inactive tenant", zap.String("domain", d), zap.String("tenant_id", t.ID))
		return nil, fmt.Errorf("resolve tenant %s: inactive: %w", d, domain.ErrNotFound)
	}
	return t, nil
}
