package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storepulse/internal/domain"
	"storepulse/internal/store"
)

type Service struct {
	store  *store.Store
	logger *zap.Logger
}

func New(s *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, logger: logger}
}

func (s *Service) List(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalid, filter.Status)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return nil, fmt.Errorf("%w: order date range is empty", domain.ErrInvalid)
	}
	return s.store.Tenant(tenantID).ListOrders(ctx, filter)
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*domain.Order, error) {
	return s.store.Tenant(tenantID).GetOrder(ctx, id)
}

// UpdateStatus moves an order along its lifecycle. Delivering an order
// credits its customer with the order total once.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalid, next)
	}
	scope := s.store.Tenant(tenantID)
	updated, from, err := scope.TransitionOrder(ctx, id, next)
	if err != nil {
		return nil, err
	}
	if from == next {
		return updated, nil
	}
	s.logger.Info("order: status changed",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(next)))

	if next == domain.OrderDelivered && updated.CustomerID != "" {
		if _, err := scope.RecordCompletedOrder(ctx, updated.CustomerID, updated.Total); err != nil {
			s.logger.Warn("order: customer totals not updated",
				zap.String("tenant_id", tenantID),
				zap.String("order_id", id),
				zap.String("customer_id", updated.CustomerID),
				zap.Error(err))
		}
	}
	return updated, nil
}
