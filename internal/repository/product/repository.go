package product

import (
	"context"

	"storepulse/internal/domain"
)

// Repository stores products. Every method is scoped to one tenant.
type Repository interface {
	List(ctx context.Context, tenantID string, filter domain.ProductFilter) ([]domain.Product, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Product, error)
	Create(ctx context.Context, tenantID string, product domain.Product) (*domain.Product, error)
	Update(ctx context.Context, tenantID, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, tenantID, id string) error
	// UpsertByExternalID inserts or updates the product keyed by (tenant, external id).
	// Locally tracked sales and rating survive updates.
	UpsertByExternalID(ctx context.Context, tenantID string, product domain.Product) (*domain.Product, error)
}
