package event

import (
	"context"

	"storepulse/internal/domain"
)

// Repository is an append-only log of custom events.
type Repository interface {
	Append(ctx context.Context, tenantID string, e domain.CustomEvent) (*domain.CustomEvent, error)
	List(ctx context.Context, tenantID string, filter domain.EventFilter) ([]domain.CustomEvent, error)
}
