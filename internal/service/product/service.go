package product

import (
	"context"

	"go.uber.org/zap"

	"storepulse/internal/domain"
	"storepulse/internal/shopify"
	"storepulse/internal/store"
)

// Pusher sends dashboard edits back to the platform, satisfied by *shopify.Client.
type Pusher interface {
	PushProduct(ctx context.Context, t domain.Tenant, patch shopify.ExternalPatch) error
}

type Service struct {
	store  *store.Store
	pusher Pusher
	logger *zap.Logger
}

// New builds the service. pusher may be nil to keep edits local.
func New(s *store.Store, pusher Pusher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, pusher: pusher, logger: logger}
}

func (s *Service) List(ctx context.Context, tenantID string, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.store.Tenant(tenantID).ListProducts(ctx, filter)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.Product, error) {
	return s.store.Tenant(tenantID).GetProduct(ctx, id)
}

func (s *Service) Create(ctx context.Context, tenantID string, p domain.Product) (*domain.Product, error) {
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.store.Tenant(tenantID).CreateProduct(ctx, p)
}

// Update applies patch locally, then pushes the platform-owned fields of
// synced products. A failed push is logged; the local edit stands and the
// next sweep reconciles.
func (s *Service) Update(ctx context.Context, tenantID, id string, patch domain.ProductPatch) (*domain.Product, error) {
	updated, err := s.store.Tenant(tenantID).UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if s.pusher == nil || updated.ExternalID == "" {
		return updated, nil
	}

	ext, err := shopify.ToExternalPatch(shopify.KindProduct, updated.ExternalID, patch)
	if err != nil || ext.Empty() {
		return updated, nil
	}
	t, err := s.store.Tenants().Get(ctx, tenantID)
	if err != nil {
		s.logger.Warn("product: push skipped", zap.String("tenant_id", tenantID), zap.Error(err))
		return updated, nil
	}
	if err := s.pusher.PushProduct(ctx, *t, ext); err != nil {
		s.logger.Warn("product: push failed",
			zap.String("tenant_id", tenantID),
			zap.String("product_id", id),
			zap.String("external_id", updated.ExternalID),
			zap.Error(err))
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	return s.store.Tenant(tenantID).DeleteProduct(ctx, id)
}
