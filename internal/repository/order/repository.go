package order

import (
	"context"

	"storepulse/internal/domain"
)

// Repository stores orders scoped by tenant.
type Repository interface {
	List(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.Order, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Order, error)
	Create(ctx context.Context, tenantID string, o domain.Order) (*domain.Order, error)
	Update(ctx context.Context, tenantID, id string, patch domain.OrderPatch) (*domain.Order, error)
	// Transition moves the order to next if the lifecycle allows it and
	// returns the status it held before. Check and write are atomic.
	Transition(ctx context.Context, tenantID, id string, next domain.OrderStatus) (*domain.Order, domain.OrderStatus, error)
	Delete(ctx context.Context, tenantID, id string) error
	// UpsertByExternalID keeps the status chosen by domain.MergeOrderStatus.
	UpsertByExternalID(ctx context.Context, tenantID string, o domain.Order) (*domain.Order, error)
}
