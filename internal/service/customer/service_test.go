package customer

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/domain"
	"storepulse/internal/store"
)

func seeded(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	_, err := s.Tenants().Create(ctx, domain.Tenant{ID: "tenant-001", Name: "Demo", Domain: "demo-store.myshopify.com"})
	require.NoError(t, err)
	for _, c := range []domain.Customer{
		{ID: "c1", Name: "Ann", TotalSpent: decimal.NewFromInt(100), TotalOrders: 3},
		{ID: "c2", Name: "Bo", TotalSpent: decimal.NewFromInt(100), TotalOrders: 5},
		{ID: "c3", Name: "Cy", TotalSpent: decimal.NewFromInt(50), TotalOrders: 1},
	} {
		_, err := s.Tenant("tenant-001").CreateCustomer(ctx, c)
		require.NoError(t, err)
	}
	return s
}

func TestTopBreaksTiesByOrderCount(t *testing.T) {
	svc := New(seeded(t), 0)
	top, err := svc.Top(context.Background(), "tenant-001", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "c2", top[0].ID)
	assert.Equal(t, "c1", top[1].ID)

	all, err := svc.Top(context.Background(), "tenant-001", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListAndGet(t *testing.T) {
	ctx := context.Background()
	svc := New(seeded(t), 5)

	list, err := svc.List(ctx, "tenant-001", domain.CustomerFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.List(ctx, "tenant-001", domain.CustomerFilter{Sort: "name"})
	require.ErrorIs(t, err, domain.ErrInvalid)

	c, err := svc.Get(ctx, "tenant-001", "c3")
	require.NoError(t, err)
	assert.Equal(t, "Cy", c.Name)

	_, err = svc.Get(ctx, "tenant-002", "c3")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
