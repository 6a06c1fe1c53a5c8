package customer

import (
	"context"
	"fmt"

	"storepulse/internal/analytics"
	"storepulse/internal/domain"
	"storepulse/internal/store"
)

// Service exposes read access to a tenant's synced customers.
type Service struct {
	store *store.Store
	topN  int
}

// New creates a Service. topN is the default size of Top.
func New(s *store.Store, topN int) *Service {
	if topN <= 0 {
		topN = analytics.DefaultTopN
	}
	return &Service{store: s, topN: topN}
}

func (s *Service) List(ctx context.Context, tenantID string, filter domain.CustomerFilter) ([]domain.Customer, error) {
	switch filter.Sort {
	case domain.CustomerSortNewest, domain.CustomerSortSpent:
	default:
		return nil, fmt.Errorf("%w: unknown customer sort %q", domain.ErrInvalid, filter.Sort)
	}
	return s.store.Tenant(tenantID).ListCustomers(ctx, filter)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.Customer, error) {
	return s.store.Tenant(tenantID).GetCustomer(ctx, id)
}

// Top returns the n biggest spenders with the dashboard's tie-break order.
// n <= 0 selects the configured default.
func (s *Service) Top(ctx context.Context, tenantID string, n int) ([]domain.Customer, error) {
	if n <= 0 {
		n = s.topN
	}
	all, err := s.store.Tenant(tenantID).ListCustomers(ctx, domain.CustomerFilter{})
	if err != nil {
		return nil, err
	}
	return analytics.TopCustomers(all, n), nil
}
