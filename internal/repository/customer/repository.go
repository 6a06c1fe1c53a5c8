package customer

import (
	"context"

	"github.com/shopspring/decimal"

	"storepulse/internal/domain"
)

// Repository persists and fetches customers of one tenant at a time.
type Repository interface {
	List(ctx context.Context, tenantID string, filter domain.CustomerFilter) ([]domain.Customer, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Customer, error)
	Create(ctx context.Context, tenantID string, c domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, tenantID, id string) error
	UpsertByExternalID(ctx context.Context, tenantID string, c domain.Customer) (*domain.Customer, error)
	// RecordCompletedOrder adds one order and amount to the customer's totals.
	RecordCompletedOrder(ctx context.Context, tenantID, id string, amount decimal.Decimal) (*domain.Customer, error)
}
